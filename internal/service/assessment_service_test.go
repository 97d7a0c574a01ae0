package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
)

func answer(style string, points int) model.AttemptAnswer {
	return model.AttemptAnswer{LearningStyleID: style, Points: model.IntPtr(points)}
}

func TestScore(t *testing.T) {
	svc := newTestEnv(t).assessmentSvc

	tests := []struct {
		name    string
		answers []model.AttemptAnswer
		want    string
		wantErr error
	}{
		{"highest tally wins", []model.AttemptAnswer{answer("A", 2), answer("B", 1), answer("A", 1)}, "A", nil},
		{"tie goes to first in input order", []model.AttemptAnswer{answer("A", 1), answer("B", 1)}, "A", nil},
		{"later style must strictly exceed", []model.AttemptAnswer{answer("B", 2), answer("A", 1), answer("A", 1)}, "B", nil},
		{"tie on final total goes to first seen", []model.AttemptAnswer{answer("A", 1), answer("B", 2), answer("A", 1)}, "A", nil},
		{"zero points count as one", []model.AttemptAnswer{answer("A", 0), answer("B", 0)}, "A", nil},
		{"zero and missing points weigh the same", []model.AttemptAnswer{answer("A", 0), {LearningStyleID: "B"}, answer("B", 0)}, "B", nil},
		{"overtaking style wins", []model.AttemptAnswer{answer("B", 2), answer("A", 3)}, "A", nil},
		{"points default to one", []model.AttemptAnswer{{LearningStyleID: "A"}, {LearningStyleID: "B"}, {LearningStyleID: "B"}}, "B", nil},
		{"answers without style are skipped", []model.AttemptAnswer{{Points: model.IntPtr(5)}, answer("C", 1)}, "C", nil},
		{"no style at all", []model.AttemptAnswer{{Points: model.IntPtr(1)}}, "", util.ErrNoValidAnswers},
		{"empty input", nil, "", util.ErrNoValidAnswers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Score(tt.answers)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// seedAssessment stores an active learning-style test with two questions, inserted out of
// order, each offering a "visual" and an "auditory" choice.
func seedAssessment(t *testing.T, env *testEnv) (assessmentID string, questions []string, choices map[string]map[string]string) {
	t.Helper()
	ctx := context.Background()
	store := env.store

	for _, s := range []struct{ id, name string }{{"visual", "Visual"}, {"auditory", "Auditory"}} {
		if _, err := env.styles.Create(ctx, &model.LearningStyle{ID: s.id, Name: s.name}); err != nil {
			t.Fatalf("seed style: %v", err)
		}
	}

	assessmentID, err := store.Insert(ctx, repository.CollectionAssessments, model.Assessment{
		Type: util.LearningStyleAssessment, Title: "Learning style", IsActive: true,
	}, "")
	if err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	if _, err := store.Insert(ctx, repository.CollectionAssessments, model.Assessment{
		Type: util.LearningStyleAssessment, Title: "Retired", IsActive: false,
	}, ""); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}

	second, _ := store.Insert(ctx, repository.CollectionQuestions, model.Question{
		AssessmentID: assessmentID, Text: "second", Order: model.IntPtr(2),
	}, "")
	first, _ := store.Insert(ctx, repository.CollectionQuestions, model.Question{
		AssessmentID: assessmentID, Text: "first", Position: model.IntPtr(1),
	}, "")
	questions = []string{first, second}

	choices = map[string]map[string]string{}
	for _, q := range questions {
		choices[q] = map[string]string{}
		aud, _ := store.Insert(ctx, repository.CollectionChoices, model.Choice{
			QuestionID: q, Text: "hear", LearningStyleID: "auditory", Order: model.IntPtr(2),
		}, "")
		vis, _ := store.Insert(ctx, repository.CollectionChoices, model.Choice{
			QuestionID: q, Text: "see", LearningStyleID: "visual", Points: model.IntPtr(2), Order: model.IntPtr(1),
		}, "")
		choices[q]["auditory"] = aud
		choices[q]["visual"] = vis
	}
	return assessmentID, questions, choices
}

func TestGetActiveAssessmentHydratesInOrder(t *testing.T) {
	env := newTestEnv(t)
	id, questions, choices := seedAssessment(t, env)

	a, err := env.assessmentSvc.GetActiveAssessment(context.Background(), util.LearningStyleAssessment)
	if err != nil {
		t.Fatalf("GetActiveAssessment: %v", err)
	}
	if a == nil || a.ID != id {
		t.Fatalf("expected active assessment %s, got %+v", id, a)
	}
	if len(a.Questions) != 2 || a.Questions[0].ID != questions[0] || a.Questions[1].ID != questions[1] {
		t.Fatalf("questions out of order: %+v", a.Questions)
	}
	for _, q := range a.Questions {
		if len(q.Choices) != 2 || q.Choices[0].ID != choices[q.ID]["visual"] {
			t.Fatalf("choices out of order for %s: %+v", q.ID, q.Choices)
		}
	}

	missing, err := env.assessmentSvc.GetActiveAssessment(context.Background(), "other")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown type, got %+v %v", missing, err)
	}
}

func TestSubmitLearningStyleTestWritesHistoryAndPointer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1", nil)
	_, questions, choices := seedAssessment(t, env)

	sub := &TestSubmission{Answers: []AnswerSelection{
		{QuestionID: questions[0], ChoiceID: choices[questions[0]]["visual"]},
		{QuestionID: questions[1], ChoiceID: choices[questions[1]]["auditory"]},
	}}
	result, err := env.assessmentSvc.SubmitLearningStyleTest(ctx, "u1", sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.LearningStyleID != "visual" || result.LearningStyle == nil || result.LearningStyle.Name != "Visual" {
		t.Fatalf("unexpected result %+v", result)
	}

	history, err := env.assessments.UserLearningStyles(ctx, "u1")
	if err != nil || len(history) != 1 || history[0].AssessmentAttemptID != result.AttemptID {
		t.Fatalf("history = %+v, %v", history, err)
	}
	user, _ := env.users.FindByID(ctx, "u1")
	if !user.HasLearningStyle() || *user.LearningStyleID != "visual" || user.LearningStyleAssignedAt == nil {
		t.Fatalf("user pointer not written: %+v", user)
	}
	answers, _ := env.assessments.AnswersFor(ctx, result.AttemptID)
	if len(answers) != 2 {
		t.Fatalf("expected 2 recorded answers, got %d", len(answers))
	}
	if !hasEvent(env.events, event.AssessmentScored) || !hasEvent(env.events, event.LearningStyleAssigned) {
		t.Fatalf("missing events: %v", env.events.Types())
	}

	// A retake appends history and moves the pointer.
	sub.Answers[0].ChoiceID = choices[questions[0]]["auditory"]
	if _, err := env.assessmentSvc.SubmitLearningStyleTest(ctx, "u1", sub); err != nil {
		t.Fatalf("retake: %v", err)
	}
	history, _ = env.assessments.UserLearningStyles(ctx, "u1")
	user, _ = env.users.FindByID(ctx, "u1")
	if len(history) != 2 || *user.LearningStyleID != "auditory" {
		t.Fatalf("retake: history %d, pointer %v", len(history), *user.LearningStyleID)
	}
}

func TestSubmitLearningStyleTestValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1", nil)
	_, questions, choices := seedAssessment(t, env)

	partial := &TestSubmission{Answers: []AnswerSelection{
		{QuestionID: questions[0], ChoiceID: choices[questions[0]]["visual"]},
	}}
	if _, err := env.assessmentSvc.SubmitLearningStyleTest(ctx, "u1", partial); !errors.Is(err, util.ErrUnansweredQuestions) {
		t.Fatalf("expected ErrUnansweredQuestions, got %v", err)
	}

	foreign := &TestSubmission{Answers: []AnswerSelection{
		{QuestionID: questions[0], ChoiceID: choices[questions[1]]["visual"]},
		{QuestionID: questions[1], ChoiceID: choices[questions[1]]["visual"]},
	}}
	if _, err := env.assessmentSvc.SubmitLearningStyleTest(ctx, "u1", foreign); !errors.Is(err, util.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if n := env.store.Count(repository.CollectionAssessmentAttempts); n != 0 {
		t.Fatalf("rejected submissions must not record attempts, got %d", n)
	}
}

func TestSubmitWithoutActiveAssessment(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.assessmentSvc.SubmitLearningStyleTest(context.Background(), "u1", &TestSubmission{})
	if !errors.Is(err, util.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestRecordAnswersPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	boom := errors.New("insert failed")
	var inserts int32
	env.store.FailWhen(func(action docstore.Action, collection string) error {
		if action == docstore.ActionInsert && collection == repository.CollectionAttemptAnswers {
			if atomic.AddInt32(&inserts, 1) == 2 {
				return boom
			}
		}
		return nil
	})

	answers := []model.AttemptAnswer{answer("A", 1), answer("B", 1), answer("A", 1)}
	err := env.assessmentSvc.RecordAnswers(ctx, "attempt-1", answers)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if n := env.store.Count(repository.CollectionAttemptAnswers); n != 2 {
		t.Fatalf("expected the other 2 answers to be stored, got %d", n)
	}
}

func TestRecordAttemptStampsOneInstant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.assessmentSvc.RecordAttempt(ctx, AttemptInput{UserID: "u1", AssessmentID: "a1", Status: util.AttemptCompleted})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	doc, err := env.store.GetOne(ctx, repository.CollectionAssessmentAttempts, id)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	var a model.AssessmentAttempt
	if err := docstore.Decode(doc, &a); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !a.StartedAt.Equal(a.CompletedAt) || a.StartedAt.IsZero() || a.Status != util.AttemptCompleted {
		t.Fatalf("unexpected attempt %+v", a)
	}
}

func TestNormalizeLearningStyles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.store.Insert(ctx, repository.CollectionLearningStyles, map[string]interface{}{
		"name": "Visual", "characteristics": "Likes diagrams\n\n  Uses colour  \n",
	}, "visual"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := env.store.Insert(ctx, repository.CollectionLearningStyles, map[string]interface{}{
		"name": "Auditory", "characteristics": []string{"Listens"},
	}, "auditory"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	report, err := env.assessmentSvc.NormalizeLearningStyles(ctx)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if report.Updated != 1 || report.Unchanged != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	doc, _ := env.store.GetOne(ctx, repository.CollectionLearningStyles, "visual")
	if _, isString := doc["characteristics"].(string); isString {
		t.Fatalf("characteristics still a string: %v", doc["characteristics"])
	}
	style, _ := env.assessmentSvc.GetLearningStyle(ctx, "visual")
	if len(style.Characteristics) != 2 || style.Characteristics[1] != "Uses colour" {
		t.Fatalf("characteristics = %v", style.Characteristics)
	}
	if got := env.assessmentSvc.ListLearningStyles(ctx); len(got) != 2 {
		t.Fatalf("expected 2 styles, got %d", len(got))
	}
}
