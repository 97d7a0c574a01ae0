package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"educorp_backend/internal/config"
	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/logger"
	"educorp_backend/pkg/monitoring"
	"educorp_backend/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// joinLimit bounds concurrent per-row lookups when joining rows with their course.
const joinLimit = 8

type EnrollmentService struct {
	Enrollments *repository.EnrollmentRepository
	Progress    *repository.ProgressRepository
	Courses     *repository.CourseRepository
	Events      event.Publisher

	deleteProgressOnUnenroll atomic.Bool
}

func NewEnrollmentService(
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	courses *repository.CourseRepository,
	events event.Publisher,
	cfg config.EnrollmentConfig,
) *EnrollmentService {
	s := &EnrollmentService{
		Enrollments: enrollments,
		Progress:    progress,
		Courses:     courses,
		Events:      events,
	}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig swaps in reloadable settings.
func (s *EnrollmentService) ApplyConfig(cfg config.EnrollmentConfig) {
	s.deleteProgressOnUnenroll.Store(cfg.DeleteProgressOnUnenroll)
}

// Enroll creates the enrollment and its zeroed progress row. The duplicate check is a query,
// so two concurrent calls for the same pair can both succeed.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (enrollment *model.Enrollment, err error) {
	if userID == "" || courseID == "" {
		return nil, fmt.Errorf("%w: userId and courseId are required", util.ErrInvalidArgument)
	}
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.Enroll")
	defer func() { tracing.End(span, err) }()

	existing, err := s.Enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, util.ErrDuplicateEnrollment
	}

	now := model.Now()
	enrollment = &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: now,
		Status:     util.EnrollmentActive,
	}
	if _, err := s.Enrollments.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	progress := &model.UserProgress{
		UserID:             userID,
		CourseID:           courseID,
		CompletedLessonIDs: []string{},
		LastAccessedAt:     now,
		CreatedAt:          now,
	}
	if _, err := s.Progress.Create(ctx, progress); err != nil {
		logger.Log.Error("Enrollment created without progress row",
			zap.String("user_id", userID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	monitoring.Enrollments.Inc()
	event.Emit(ctx, s.Events, event.EnrollmentCreated, map[string]interface{}{
		"userId": userID, "courseId": courseID, "enrollmentId": enrollment.ID,
	})
	return enrollment, nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	rows, err := s.Enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// GetEnrollment returns nil when the user is not enrolled.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	rows, err := s.Enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Unenroll deletes the pair's enrollment rows. Progress rows are kept unless
// enrollment.delete_progress_on_unenroll is set, which removes all of them.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID string) error {
	rows, err := s.Enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("enrollment for user %s in course %s: %w", userID, courseID, util.ErrNotFound)
	}
	for _, e := range rows {
		if err := s.Enrollments.Delete(ctx, e.ID); err != nil {
			return err
		}
	}

	if s.deleteProgressOnUnenroll.Load() {
		progress, err := s.Progress.FindAllByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return err
		}
		for _, p := range progress {
			if err := s.Progress.Delete(ctx, p.ID); err != nil {
				return err
			}
		}
	}

	event.Emit(ctx, s.Events, event.EnrollmentRemoved, map[string]interface{}{
		"userId": userID, "courseId": courseID,
	})
	return nil
}

// RecordLessonComplete adds lessonID to the completed set and recomputes the counters
// against the live course. Re-marking a completed lesson changes nothing.
func (s *EnrollmentService) RecordLessonComplete(ctx context.Context, userID, courseID, lessonID string) (progress *model.UserProgress, err error) {
	if lessonID == "" {
		return nil, fmt.Errorf("%w: lessonId is required", util.ErrInvalidArgument)
	}
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.RecordLessonComplete")
	defer func() { tracing.End(span, err) }()

	progress, err = s.Progress.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.ErrNotEnrolled
	}
	if progress.HasCompleted(lessonID) {
		return progress, nil
	}

	course, err := s.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := model.Now()
	progress.CompletedLessonIDs = append(progress.CompletedLessonIDs, lessonID)
	progress.Recompute(course.TotalLessons())
	progress.LastAccessedAt = now
	progress.UpdatedAt = &now
	if err := s.Progress.SaveCounters(ctx, progress); err != nil {
		return nil, err
	}

	monitoring.LessonsCompleted.Inc()
	event.Emit(ctx, s.Events, event.LessonCompleted, map[string]interface{}{
		"userId": userID, "courseId": courseID, "lessonId": lessonID,
		"progressPercentage": progress.ProgressPercentage,
	})
	return progress, nil
}

// GetProgress returns nil when the pair has no progress row.
func (s *EnrollmentService) GetProgress(ctx context.Context, userID, courseID string) (*model.UserProgress, error) {
	return s.Progress.FindByUserAndCourse(ctx, userID, courseID)
}

func (s *EnrollmentService) Classify(p *model.UserProgress) model.ProgressStatus {
	return model.Classify(p)
}

func (s *EnrollmentService) listUserProgress(ctx context.Context, userID string) ([]model.ProgressWithCourse, error) {
	rows, err := s.Progress.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.ProgressWithCourse, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinLimit)
	for i := range rows {
		g.Go(func() error {
			course, err := s.Courses.FindByID(gctx, rows[i].CourseID)
			if err != nil {
				return err
			}
			out[i] = model.ProgressWithCourse{
				UserProgress: rows[i],
				Status:       model.Classify(&rows[i]),
				Course:       course,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserProgress joins every progress row of the user with its course. Read failures yield
// an empty list.
func (s *EnrollmentService) ListUserProgress(ctx context.Context, userID string) []model.ProgressWithCourse {
	out, err := s.listUserProgress(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to list user progress", zap.String("user_id", userID), zap.Error(err))
		return []model.ProgressWithCourse{}
	}
	return out
}

func (s *EnrollmentService) listUserEnrollments(ctx context.Context, userID string) ([]model.EnrollmentWithCourse, error) {
	rows, err := s.Enrollments.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.EnrollmentWithCourse, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinLimit)
	for i := range rows {
		g.Go(func() error {
			course, err := s.Courses.FindByID(gctx, rows[i].CourseID)
			if err != nil {
				return err
			}
			out[i] = model.EnrollmentWithCourse{Enrollment: rows[i], Course: course}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserEnrollments joins every enrollment of the user with its course. Read failures yield
// an empty list.
func (s *EnrollmentService) ListUserEnrollments(ctx context.Context, userID string) []model.EnrollmentWithCourse {
	out, err := s.listUserEnrollments(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to list user enrollments", zap.String("user_id", userID), zap.Error(err))
		return []model.EnrollmentWithCourse{}
	}
	return out
}

func (s *EnrollmentService) progressWithStatus(ctx context.Context, userID string, status model.ProgressStatus) []model.ProgressWithCourse {
	all := s.ListUserProgress(ctx, userID)
	out := make([]model.ProgressWithCourse, 0, len(all))
	for _, p := range all {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func (s *EnrollmentService) CoursesInProgress(ctx context.Context, userID string) []model.ProgressWithCourse {
	return s.progressWithStatus(ctx, userID, model.ProgressInProgress)
}

func (s *EnrollmentService) CompletedCourses(ctx context.Context, userID string) []model.ProgressWithCourse {
	return s.progressWithStatus(ctx, userID, model.ProgressCompleted)
}

// PendingCourses lists enrollments that have no progress row at all. A row at 0% is not
// pending here.
func (s *EnrollmentService) PendingCourses(ctx context.Context, userID string) []model.EnrollmentWithCourse {
	var (
		enrollments []model.EnrollmentWithCourse
		progress    []model.UserProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		enrollments, err = s.listUserEnrollments(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		progress, err = s.Progress.FindByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error("Failed to list pending courses", zap.String("user_id", userID), zap.Error(err))
		return []model.EnrollmentWithCourse{}
	}

	tracked := courseSet(progress)
	out := make([]model.EnrollmentWithCourse, 0)
	for _, e := range enrollments {
		if !tracked[e.CourseID] {
			out = append(out, e)
		}
	}
	return out
}

// UserStatistics counts enrollments and classifies progress rows. CursosPendientes counts
// enrollments without a progress row. Read failures yield all zeros.
func (s *EnrollmentService) UserStatistics(ctx context.Context, userID string) model.UserStatistics {
	var (
		enrollments []model.Enrollment
		progress    []model.UserProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		enrollments, err = s.Enrollments.FindByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		progress, err = s.Progress.FindByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error("Failed to compute user statistics", zap.String("user_id", userID), zap.Error(err))
		return model.UserStatistics{}
	}

	stats := model.UserStatistics{TotalCursos: len(enrollments)}
	for i := range progress {
		switch model.Classify(&progress[i]) {
		case model.ProgressCompleted:
			stats.CursosCompletados++
		case model.ProgressInProgress:
			stats.CursosEnProgreso++
		}
	}
	tracked := courseSet(progress)
	for _, e := range enrollments {
		if !tracked[e.CourseID] {
			stats.CursosPendientes++
		}
	}
	return stats
}

func courseSet(progress []model.UserProgress) map[string]bool {
	set := make(map[string]bool, len(progress))
	for _, p := range progress {
		set[p.CourseID] = true
	}
	return set
}
