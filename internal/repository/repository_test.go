package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"educorp_backend/internal/model"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFindByIDMissingIsNil(t *testing.T) {
	repo := NewCourseRepository(docstore.NewMemoryStore())
	c, err := repo.FindByID(context.Background(), "nope")
	if err != nil || c != nil {
		t.Fatalf("FindByID(missing) = %v, %v", c, err)
	}
}

func TestGatewayFailureIsTransient(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.FailWhen(func(docstore.Action, string) error { return errors.New("connection reset") })
	repo := NewCourseRepository(store)

	_, err := repo.FindActive(context.Background())
	if !errors.Is(err, util.ErrTransientIO) {
		t.Fatalf("expected ErrTransientIO, got %v", err)
	}
}

func TestGatewayFailureKeepsCause(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewEnrollmentRepository(store)

	for _, cause := range []error{errors.New("connection reset"), context.Canceled} {
		store.FailWhen(func(docstore.Action, string) error { return cause })
		_, err := repo.Create(context.Background(), &model.Enrollment{UserID: "u1", CourseID: "c1"})
		if !errors.Is(err, util.ErrTransientIO) {
			t.Fatalf("expected ErrTransientIO, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("cause %v lost from %v", cause, err)
		}
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	repo := NewUserRepository(docstore.NewMemoryStore())
	err := repo.Update(context.Background(), "ghost", bson.M{"name": "x"})
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindActiveOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(docstore.NewMemoryStore())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"old", "hidden", "new"} {
		c := &model.Course{Title: title, IsActive: title != "hidden", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if _, err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	active, err := repo.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if len(active) != 2 || active[0].Title != "new" || active[1].Title != "old" {
		t.Fatalf("unexpected active courses: %+v", active)
	}
	all, _ := repo.FindAll(ctx)
	if len(all) != 3 || all[0].Title != "new" {
		t.Fatalf("unexpected admin listing: %+v", all)
	}
}

func TestUserOptionalFieldsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(docstore.NewMemoryStore())
	u := &model.User{Email: "a@b.c", CreatedAt: model.Now()}
	if err := repo.Create(ctx, u, "uid-1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.FindByID(ctx, "uid-1")
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v %v", got, err)
	}
	if got.LearningStyleID != nil || got.HasLearningStyle() {
		t.Fatalf("learningStyleId should be unset")
	}
}
