package event

import (
	"context"
	"errors"
	"testing"
)

func TestEmitRecordsAndSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	rec := NewRecordingPublisher()

	Emit(ctx, rec, EnrollmentCreated, map[string]interface{}{"userId": "u1"})
	rec.Err = errors.New("broker down")
	Emit(ctx, rec, LessonCompleted, nil)
	Emit(ctx, nil, UserCreated, nil)

	got := rec.Types()
	if len(got) != 1 || got[0] != EnrollmentCreated {
		t.Fatalf("unexpected events: %v", got)
	}
}
