package service

import (
	"context"
	"testing"
	"time"

	"educorp_backend/internal/config"
	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/identity"
	"educorp_backend/pkg/logger"
)

type testEnv struct {
	store    *docstore.MemoryStore
	events   *event.RecordingPublisher
	sessions *identity.MemorySessionStore
	provider *identity.Provider

	courses     *repository.CourseRepository
	enrollRepo  *repository.EnrollmentRepository
	progress    *repository.ProgressRepository
	users       *repository.UserRepository
	roles       *repository.RoleRepository
	userRoles   *repository.UserRoleRepository
	assessments *repository.AssessmentRepository
	styles      *repository.LearningStyleRepository

	courseSvc     *CourseService
	enrollmentSvc *EnrollmentService
	userSvc       *UserService
	assessmentSvc *AssessmentService
	authSvc       *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.InitNop()

	e := &testEnv{
		store:    docstore.NewMemoryStore(),
		events:   event.NewRecordingPublisher(),
		sessions: identity.NewMemorySessionStore(),
	}
	e.provider = identity.NewProvider(identity.NewMemoryAccountStore(), e.sessions, "test-secret", time.Hour)

	e.courses = repository.NewCourseRepository(e.store)
	e.enrollRepo = repository.NewEnrollmentRepository(e.store)
	e.progress = repository.NewProgressRepository(e.store)
	e.users = repository.NewUserRepository(e.store)
	e.roles = repository.NewRoleRepository(e.store)
	e.userRoles = repository.NewUserRoleRepository(e.store)
	e.assessments = repository.NewAssessmentRepository(e.store)
	e.styles = repository.NewLearningStyleRepository(e.store)

	e.courseSvc = NewCourseService(e.courses, nil, e.events)
	e.courseSvc.ProbeVideo = nil
	e.enrollmentSvc = NewEnrollmentService(e.enrollRepo, e.progress, e.courses, e.events, config.EnrollmentConfig{})
	e.userSvc = NewUserService(e.users, e.roles, e.userRoles, e.enrollRepo, e.progress, e.provider, e.events, util.RoleStudent)
	e.assessmentSvc = NewAssessmentService(e.assessments, e.styles, e.userSvc, e.events, util.LearningStyleAssessment)
	e.authSvc = NewAuthService(e.provider, e.userSvc)

	if err := e.userSvc.SeedRoles(context.Background()); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	return e
}

// seedCourse stores an active course with one module per entry of lessonsPerModule.
func (e *testEnv) seedCourse(t *testing.T, title string, lessonsPerModule ...int) *model.Course {
	t.Helper()
	modules := make([]model.Module, 0, len(lessonsPerModule))
	for _, n := range lessonsPerModule {
		m := model.Module{Title: title + " module"}
		for j := 0; j < n; j++ {
			m.Lessons = append(m.Lessons, model.Lesson{Title: "lesson"})
		}
		modules = append(modules, m)
	}
	course, err := e.courseSvc.CreateCourse(context.Background(), &CourseInput{
		Title:   model.StringPtr(title),
		Modules: modules,
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	return course
}

func lessonIDs(c *model.Course) []string {
	var ids []string
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func (e *testEnv) seedUser(t *testing.T, id string, styleID *string) {
	t.Helper()
	now := model.Now()
	if err := e.users.Create(context.Background(), &model.User{
		Email:           id + "@example.com",
		DisplayName:     id,
		Name:            id,
		LearningStyleID: styleID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, id); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (e *testEnv) grantRole(t *testing.T, userID, roleName string) {
	t.Helper()
	ctx := context.Background()
	role, err := e.roles.FindByName(ctx, roleName)
	if err != nil || role == nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	if _, err := e.userRoles.Create(ctx, &model.UserRole{UserID: userID, RoleID: role.ID, AssignedAt: model.Now()}); err != nil {
		t.Fatalf("grant role: %v", err)
	}
}

func hasEvent(p *event.RecordingPublisher, want event.Type) bool {
	for _, t := range p.Types() {
		if t == want {
			return true
		}
	}
	return false
}
