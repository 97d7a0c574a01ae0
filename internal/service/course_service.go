package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type CourseService struct {
	Repo    *repository.CourseRepository
	Storage *StorageService
	Events  event.Publisher
	// ProbeVideo reads media metadata from a local file.
	ProbeVideo func(path string) (*util.VideoInfo, error)
}

func NewCourseService(repo *repository.CourseRepository, storage *StorageService, events event.Publisher) *CourseService {
	return &CourseService{
		Repo:       repo,
		Storage:    storage,
		Events:     events,
		ProbeVideo: util.GetVideoInfo,
	}
}

// ListActiveCourses returns active courses, newest first. Read failures yield an empty list.
func (s *CourseService) ListActiveCourses(ctx context.Context) []model.Course {
	courses, err := s.Repo.FindActive(ctx)
	if err != nil {
		logger.Log.Error("Failed to list active courses", zap.Error(err))
		return []model.Course{}
	}
	return courses
}

// ListAllCoursesForAdmin includes inactive courses. Read failures yield an empty list.
func (s *CourseService) ListAllCoursesForAdmin(ctx context.Context) []model.Course {
	courses, err := s.Repo.FindAll(ctx)
	if err != nil {
		logger.Log.Error("Failed to list courses", zap.Error(err))
		return []model.Course{}
	}
	return courses
}

// GetCourseByID returns nil when the course does not exist.
func (s *CourseService) GetCourseByID(ctx context.Context, id string) (*model.Course, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *CourseService) TotalLessonCount(course *model.Course) int {
	return course.TotalLessons()
}

type CourseInput struct {
	Title            *string        `json:"title"`
	Description      *string        `json:"description"`
	ShortDescription *string        `json:"shortDescription"`
	Level            *string        `json:"level"`
	Duration         *string        `json:"duration"`
	Category         *string        `json:"category"`
	VideoURL         *string        `json:"videoUrl"`
	ThumbnailURL     *string        `json:"thumbnailUrl"`
	Modules          []model.Module `json:"modules"`
	IsActive         *bool          `json:"isActive"`
}

func (in *CourseInput) patch() bson.M {
	patch := bson.M{}
	set := func(key string, v *string) {
		if v != nil {
			patch[key] = *v
		}
	}
	set("title", in.Title)
	set("description", in.Description)
	set("shortDescription", in.ShortDescription)
	set("level", in.Level)
	set("duration", in.Duration)
	set("category", in.Category)
	set("videoUrl", in.VideoURL)
	set("thumbnailUrl", in.ThumbnailURL)
	if in.Modules != nil {
		patch["modules"] = assignLessonIDs(in.Modules)
	}
	if in.IsActive != nil {
		patch["isActive"] = *in.IsActive
	}
	return patch
}

// assignLessonIDs gives every lesson without an id a fresh one.
func assignLessonIDs(modules []model.Module) []model.Module {
	for i := range modules {
		for j := range modules[i].Lessons {
			if modules[i].Lessons[j].ID == "" {
				modules[i].Lessons[j].ID = docstore.NewID()
			}
		}
	}
	return modules
}

func (s *CourseService) CreateCourse(ctx context.Context, in *CourseInput) (*model.Course, error) {
	if in.Title == nil || *in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", util.ErrInvalidArgument)
	}
	now := model.Now()
	course := &model.Course{
		Title:            *in.Title,
		Description:      deref(in.Description),
		ShortDescription: deref(in.ShortDescription),
		Level:            deref(in.Level),
		Duration:         deref(in.Duration),
		Category:         deref(in.Category),
		VideoURL:         deref(in.VideoURL),
		ThumbnailURL:     deref(in.ThumbnailURL),
		Modules:          assignLessonIDs(in.Modules),
		IsActive:         in.IsActive == nil || *in.IsActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.Repo.Create(ctx, course); err != nil {
		return nil, err
	}
	event.Emit(ctx, s.Events, event.CourseCreated, map[string]interface{}{"courseId": course.ID})
	return course, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *CourseService) UpdateCourse(ctx context.Context, id string, in *CourseInput) error {
	patch := in.patch()
	patch["updatedAt"] = model.Now()
	return s.Repo.Update(ctx, id, patch)
}

// SoftDeleteCourse hides the course from the catalog and stamps deletedAt.
func (s *CourseService) SoftDeleteCourse(ctx context.Context, id string) error {
	now := model.Now()
	return s.Repo.Update(ctx, id, bson.M{
		"isActive":  false,
		"deletedAt": now,
		"updatedAt": now,
	})
}

// DeleteCoursePermanent removes the document, then its stored media. Media failures are logged.
func (s *CourseService) DeleteCoursePermanent(ctx context.Context, id string) error {
	course, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if course == nil {
		return fmt.Errorf("course %s: %w", id, util.ErrNotFound)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.Storage != nil {
		urls := []string{course.VideoURL, course.ThumbnailURL}
		for _, m := range course.Modules {
			for _, l := range m.Lessons {
				if l.VideoURL != nil {
					urls = append(urls, *l.VideoURL)
				}
			}
		}
		for _, u := range urls {
			if err := s.Storage.Delete(ctx, u); err != nil {
				logger.Log.Warn("Failed to delete course media",
					zap.String("course_id", id), zap.String("url", u), zap.Error(err))
			}
		}
	}
	event.Emit(ctx, s.Events, event.CourseDeleted, map[string]interface{}{"courseId": id})
	return nil
}

func mediaKey(folder, courseID, fileName string) string {
	return fmt.Sprintf("courses/%s/%s_%d_%s", folder, courseID, time.Now().UnixMilli(), util.SanitizeFileName(fileName))
}

// VideoUpload describes a video already spooled to a local file.
type VideoUpload struct {
	CourseID    string
	LessonID    string // empty targets the course trailer
	LocalPath   string
	FileName    string
	ContentType string
}

// UploadCourseVideo stores the video and points the course, or one of its lessons, at it.
// Lesson durations are filled from the probed length when ffprobe is available.
func (s *CourseService) UploadCourseVideo(ctx context.Context, up *VideoUpload, onProgress ProgressFunc) (string, error) {
	if !util.HasAllowedExtension(up.FileName, util.AllowedVideoExtensions) {
		return "", fmt.Errorf("%w: unsupported video format", util.ErrInvalidArgument)
	}
	course, err := s.requireCourse(ctx, up.CourseID)
	if err != nil {
		return "", err
	}
	mi, li, found := course.FindLesson(up.LessonID)
	if up.LessonID != "" && !found {
		return "", fmt.Errorf("lesson %s: %w", up.LessonID, util.ErrNotFound)
	}

	f, err := os.Open(up.LocalPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	url, err := s.Storage.Upload(ctx, mediaKey("videos", course.ID, up.FileName), f, stat.Size(), up.ContentType, onProgress)
	if err != nil {
		return "", err
	}

	patch := bson.M{"updatedAt": model.Now()}
	if up.LessonID == "" {
		patch["videoUrl"] = url
	} else {
		lesson := &course.Modules[mi].Lessons[li]
		lesson.VideoURL = model.StringPtr(url)
		if minutes := s.probeMinutes(up.LocalPath); minutes > 0 {
			lesson.Duration = model.StringPtr(fmt.Sprintf("%d min", minutes))
		}
		patch["modules"] = course.Modules
	}
	if err := s.Repo.Update(ctx, course.ID, patch); err != nil {
		return "", err
	}
	return url, nil
}

func (s *CourseService) probeMinutes(path string) int {
	if s.ProbeVideo == nil {
		return 0
	}
	info, err := s.ProbeVideo(path)
	if err != nil {
		logger.Log.Warn("Could not probe video duration", zap.String("path", path), zap.Error(err))
		return 0
	}
	return info.DurationMinutes()
}

func (s *CourseService) UploadCourseThumbnail(ctx context.Context, courseID, fileName string, r io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error) {
	if !util.HasAllowedExtension(fileName, util.AllowedImageExtensions) {
		return "", fmt.Errorf("%w: unsupported image format", util.ErrInvalidArgument)
	}
	course, err := s.requireCourse(ctx, courseID)
	if err != nil {
		return "", err
	}
	url, err := s.Storage.Upload(ctx, mediaKey("thumbnails", course.ID, fileName), r, size, contentType, onProgress)
	if err != nil {
		return "", err
	}
	if err := s.Repo.Update(ctx, course.ID, bson.M{"thumbnailUrl": url, "updatedAt": model.Now()}); err != nil {
		return "", err
	}
	return url, nil
}

func (s *CourseService) requireCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", id, util.ErrNotFound)
	}
	return course, nil
}
