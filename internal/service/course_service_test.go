package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"educorp_backend/internal/config"
	"educorp_backend/internal/model"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/event"
)

func TestCourseCatalogLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.courseSvc.CreateCourse(ctx, &CourseInput{}); !errors.Is(err, util.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for missing title, got %v", err)
	}

	older := env.seedCourse(t, "Older", 1)
	newer := env.seedCourse(t, "Newer", 2, 3)
	if !newer.IsActive || newer.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", newer)
	}
	for _, id := range lessonIDs(newer) {
		if id == "" {
			t.Fatalf("lesson without id")
		}
	}
	if got := env.courseSvc.TotalLessonCount(newer); got != 5 {
		t.Fatalf("TotalLessonCount = %d", got)
	}

	active := env.courseSvc.ListActiveCourses(ctx)
	if len(active) != 2 || active[0].ID != newer.ID && !active[0].CreatedAt.Equal(active[1].CreatedAt) {
		t.Fatalf("unexpected catalog order: %+v", active)
	}

	if err := env.courseSvc.UpdateCourse(ctx, older.ID, &CourseInput{Level: model.StringPtr("advanced")}); err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	got, _ := env.courseSvc.GetCourseByID(ctx, older.ID)
	if got.Level != "advanced" || got.Title != "Older" {
		t.Fatalf("update did not merge: %+v", got)
	}

	if err := env.courseSvc.SoftDeleteCourse(ctx, older.ID); err != nil {
		t.Fatalf("SoftDeleteCourse: %v", err)
	}
	if active := env.courseSvc.ListActiveCourses(ctx); len(active) != 1 || active[0].ID != newer.ID {
		t.Fatalf("soft-deleted course still listed: %+v", active)
	}
	if all := env.courseSvc.ListAllCoursesForAdmin(ctx); len(all) != 2 {
		t.Fatalf("admin list should keep soft-deleted courses, got %d", len(all))
	}
	got, _ = env.courseSvc.GetCourseByID(ctx, older.ID)
	if got.IsActive || got.DeletedAt == nil {
		t.Fatalf("soft delete not stamped: %+v", got)
	}

	if err := env.courseSvc.DeleteCoursePermanent(ctx, older.ID); err != nil {
		t.Fatalf("DeleteCoursePermanent: %v", err)
	}
	if c, err := env.courseSvc.GetCourseByID(ctx, older.ID); err != nil || c != nil {
		t.Fatalf("course should be gone, got %+v %v", c, err)
	}
	if err := env.courseSvc.DeleteCoursePermanent(ctx, older.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !hasEvent(env.events, event.CourseCreated) || !hasEvent(env.events, event.CourseDeleted) {
		t.Fatalf("missing course events: %v", env.events.Types())
	}
}

func TestUploadLessonVideoFillsDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	env.courseSvc.Storage = NewStorageService(&config.Config{Storage: config.StorageConfig{
		Type: util.StorageLocal, LocalPath: dir, PublicBaseURL: "http://cdn.test",
	}})
	env.courseSvc.ProbeVideo = func(path string) (*util.VideoInfo, error) {
		return &util.VideoInfo{Duration: 125}, nil
	}

	course := env.seedCourse(t, "Go", 2)
	lesson := lessonIDs(course)[1]

	src := filepath.Join(t.TempDir(), "upload.mp4")
	if err := os.WriteFile(src, bytes.Repeat([]byte("v"), 2048), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var last int
	url, err := env.courseSvc.UploadCourseVideo(ctx, &VideoUpload{
		CourseID: course.ID, LessonID: lesson, LocalPath: src, FileName: "Intro Video.mp4", ContentType: "video/mp4",
	}, func(p int) { last = p })
	if err != nil {
		t.Fatalf("UploadCourseVideo: %v", err)
	}
	if last != 100 {
		t.Fatalf("final progress = %d", last)
	}
	if !strings.HasPrefix(url, "http://cdn.test/uploads/courses/videos/"+course.ID+"_") {
		t.Fatalf("unexpected url %s", url)
	}

	got, _ := env.courseSvc.GetCourseByID(ctx, course.ID)
	l := got.Modules[0].Lessons[1]
	if l.VideoURL == nil || *l.VideoURL != url || l.Duration == nil || *l.Duration != "3 min" {
		t.Fatalf("lesson not updated: %+v", l)
	}
	if got.Modules[0].Lessons[0].VideoURL != nil {
		t.Fatalf("other lesson touched")
	}

	if _, err := env.courseSvc.UploadCourseVideo(ctx, &VideoUpload{
		CourseID: course.ID, LocalPath: src, FileName: "notes.txt",
	}, nil); !errors.Is(err, util.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for bad extension, got %v", err)
	}
	if _, err := env.courseSvc.UploadCourseVideo(ctx, &VideoUpload{
		CourseID: course.ID, LessonID: "nope", LocalPath: src, FileName: "a.mp4",
	}, nil); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown lesson, got %v", err)
	}

	thumb, err := env.courseSvc.UploadCourseThumbnail(ctx, course.ID, "cover.png", bytes.NewReader([]byte("png")), 3, "image/png", nil)
	if err != nil {
		t.Fatalf("UploadCourseThumbnail: %v", err)
	}
	if err := env.courseSvc.DeleteCoursePermanent(ctx, course.ID); err != nil {
		t.Fatalf("DeleteCoursePermanent: %v", err)
	}
	key := strings.TrimPrefix(thumb, "http://cdn.test/uploads/")
	if _, err := os.Stat(filepath.Join(dir, key)); !os.IsNotExist(err) {
		t.Fatalf("thumbnail should be deleted with the course, stat err = %v", err)
	}
}
