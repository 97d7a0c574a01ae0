package service

import (
	"context"
	"fmt"
	"strings"

	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/logger"
	"educorp_backend/pkg/monitoring"
	"educorp_backend/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LearningStyleAssigner writes the user's denormalized learning-style pointer.
type LearningStyleAssigner interface {
	SetLearningStyle(ctx context.Context, userID, styleID string) error
}

type AssessmentService struct {
	Repo           *repository.AssessmentRepository
	Styles         *repository.LearningStyleRepository
	Users          LearningStyleAssigner
	Events         event.Publisher
	AssessmentType string
}

func NewAssessmentService(
	repo *repository.AssessmentRepository,
	styles *repository.LearningStyleRepository,
	users LearningStyleAssigner,
	events event.Publisher,
	assessmentType string,
) *AssessmentService {
	if assessmentType == "" {
		assessmentType = util.LearningStyleAssessment
	}
	return &AssessmentService{
		Repo:           repo,
		Styles:         styles,
		Users:          users,
		Events:         events,
		AssessmentType: assessmentType,
	}
}

// GetActiveAssessment loads the active assessment of the given type with its questions and
// their choices, each sorted by order or position. It returns nil when none is active.
func (s *AssessmentService) GetActiveAssessment(ctx context.Context, assessmentType string) (*model.Assessment, error) {
	assessment, err := s.Repo.FindActiveByType(ctx, assessmentType)
	if err != nil || assessment == nil {
		return nil, err
	}

	questions, err := s.Repo.Questions(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinLimit)
	for i := range questions {
		g.Go(func() error {
			choices, err := s.Repo.Choices(gctx, questions[i].ID)
			if err != nil {
				return err
			}
			model.SortChoices(choices)
			questions[i].Choices = choices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	model.SortQuestions(questions)
	assessment.Questions = questions
	return assessment, nil
}

type AttemptInput struct {
	UserID       string
	AssessmentID string
	Status       string
	Score        int
}

// RecordAttempt stores a finished attempt. The whole test is submitted at once, so start and
// completion share one timestamp.
func (s *AssessmentService) RecordAttempt(ctx context.Context, in AttemptInput) (string, error) {
	now := model.Now()
	return s.Repo.CreateAttempt(ctx, &model.AssessmentAttempt{
		UserID:       in.UserID,
		AssessmentID: in.AssessmentID,
		Status:       in.Status,
		Score:        in.Score,
		StartedAt:    now,
		CompletedAt:  now,
	})
}

// RecordAnswers inserts every answer concurrently. The inserts are independent: when one
// fails the others still land and the first error is returned.
func (s *AssessmentService) RecordAnswers(ctx context.Context, attemptID string, answers []model.AttemptAnswer) error {
	var g errgroup.Group
	g.SetLimit(joinLimit)
	for i := range answers {
		a := answers[i]
		a.AttemptID = attemptID
		a.AnsweredAt = model.Now()
		g.Go(func() error {
			_, err := s.Repo.CreateAnswer(ctx, &a)
			return err
		})
	}
	return g.Wait()
}

// Score tallies points per learning style and returns the style with the highest final
// total. Answers without a style are skipped. Among styles tied on the final total the one
// seen first in input order wins.
func (s *AssessmentService) Score(answers []model.AttemptAnswer) (string, error) {
	tally := make(map[string]int)
	var order []string
	for i := range answers {
		a := &answers[i]
		if a.LearningStyleID == "" {
			logger.Log.Warn("Answer has no learning style, skipping",
				zap.String("question_id", a.QuestionID), zap.String("choice_id", a.ChoiceID))
			continue
		}
		if _, seen := tally[a.LearningStyleID]; !seen {
			order = append(order, a.LearningStyleID)
		}
		tally[a.LearningStyleID] += a.PointsOrDefault()
	}
	if len(order) == 0 {
		return "", util.ErrNoValidAnswers
	}

	best := order[0]
	for _, style := range order[1:] {
		if tally[style] > tally[best] {
			best = style
		}
	}
	return best, nil
}

// AssignStyle appends to the user's learning-style history. It does not touch the user
// document; callers also need UserService.SetLearningStyle.
func (s *AssessmentService) AssignStyle(ctx context.Context, userID, styleID, attemptID string) (string, error) {
	return s.Repo.CreateUserLearningStyle(ctx, &model.UserLearningStyle{
		UserID:              userID,
		LearningStyleID:     styleID,
		AssessmentAttemptID: attemptID,
		AssignedAt:          model.Now(),
	})
}

type AnswerSelection struct {
	QuestionID string `json:"questionId" binding:"required"`
	ChoiceID   string `json:"choiceId" binding:"required"`
}

type TestSubmission struct {
	AssessmentID string            `json:"assessmentId"`
	Answers      []AnswerSelection `json:"answers" binding:"required"`
}

// SubmitLearningStyleTest validates a complete answer sheet against the active test, records
// the attempt and its answers, scores it and assigns the resulting style to the user.
func (s *AssessmentService) SubmitLearningStyleTest(ctx context.Context, userID string, sub *TestSubmission) (result *model.TestResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "AssessmentService.SubmitLearningStyleTest")
	defer func() { tracing.End(span, err) }()

	assessment, err := s.GetActiveAssessment(ctx, s.AssessmentType)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, util.ErrConfigurationMissing
	}
	if sub.AssessmentID != "" && sub.AssessmentID != assessment.ID {
		return nil, fmt.Errorf("%w: assessment %s is not the active test", util.ErrInvalidArgument, sub.AssessmentID)
	}

	answers, err := resolveAnswers(assessment, sub.Answers)
	if err != nil {
		return nil, err
	}

	attemptID, err := s.RecordAttempt(ctx, AttemptInput{
		UserID:       userID,
		AssessmentID: assessment.ID,
		Status:       util.AttemptCompleted,
		Score:        0,
	})
	if err != nil {
		return nil, err
	}
	if err := s.RecordAnswers(ctx, attemptID, answers); err != nil {
		return nil, err
	}

	styleID, err := s.Score(answers)
	if err != nil {
		return nil, err
	}
	if _, err := s.AssignStyle(ctx, userID, styleID, attemptID); err != nil {
		return nil, err
	}
	if err := s.Users.SetLearningStyle(ctx, userID, styleID); err != nil {
		return nil, err
	}

	monitoring.AssessmentsScored.WithLabelValues(styleID).Inc()
	event.Emit(ctx, s.Events, event.AssessmentScored, map[string]interface{}{
		"userId": userID, "attemptId": attemptID, "learningStyleId": styleID,
	})

	result = &model.TestResult{AttemptID: attemptID, LearningStyleID: styleID}
	if style, err := s.Styles.FindByID(ctx, styleID); err != nil {
		logger.Log.Warn("Failed to load assigned learning style", zap.String("style_id", styleID), zap.Error(err))
	} else {
		result.LearningStyle = style
	}
	return result, nil
}

// resolveAnswers pairs every question with its chosen option, in question order. Style and
// points come from the stored choice, never from the client.
func resolveAnswers(assessment *model.Assessment, selections []AnswerSelection) ([]model.AttemptAnswer, error) {
	picked := make(map[string]string, len(selections))
	for _, sel := range selections {
		picked[sel.QuestionID] = sel.ChoiceID
	}

	var missing []string
	answers := make([]model.AttemptAnswer, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		choiceID, ok := picked[q.ID]
		if !ok || choiceID == "" {
			missing = append(missing, q.ID)
			continue
		}
		choice, ok := q.FindChoice(choiceID)
		if !ok {
			return nil, fmt.Errorf("%w: choice %s does not belong to question %s", util.ErrInvalidArgument, choiceID, q.ID)
		}
		answers = append(answers, model.AttemptAnswer{
			QuestionID:      q.ID,
			ChoiceID:        choice.ID,
			LearningStyleID: choice.LearningStyleID,
			Points:          choice.Points,
		})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d unanswered (%s)", util.ErrUnansweredQuestions,
			len(missing), len(assessment.Questions), strings.Join(missing, ", "))
	}
	if len(answers) == 0 {
		return nil, util.ErrNoValidAnswers
	}
	return answers, nil
}

// ListLearningStyles returns the style catalog. Read failures yield an empty list.
func (s *AssessmentService) ListLearningStyles(ctx context.Context) []model.LearningStyle {
	styles, err := s.Styles.FindAll(ctx)
	if err != nil {
		logger.Log.Error("Failed to list learning styles", zap.Error(err))
		return []model.LearningStyle{}
	}
	return styles
}

// GetLearningStyle returns nil when the style does not exist.
func (s *AssessmentService) GetLearningStyle(ctx context.Context, id string) (*model.LearningStyle, error) {
	return s.Styles.FindByID(ctx, id)
}

type NormalizeReport struct {
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// NormalizeLearningStyles rewrites string-form characteristics and recommendations into lists.
func (s *AssessmentService) NormalizeLearningStyles(ctx context.Context) (*NormalizeReport, error) {
	docs, err := s.Styles.Raw(ctx)
	if err != nil {
		return nil, err
	}
	report := &NormalizeReport{}
	for _, doc := range docs {
		patch := bson.M{}
		for _, field := range []string{"characteristics", "recommendations"} {
			if str, ok := doc[field].(string); ok {
				patch[field] = []string(model.SplitLines(str))
			}
		}
		if len(patch) == 0 {
			report.Unchanged++
			continue
		}
		patch["updatedAt"] = model.Now()
		id, _ := doc["_id"].(string)
		if err := s.Styles.Update(ctx, id, patch); err != nil {
			return report, err
		}
		logger.Log.Info("Normalized learning style", zap.String("style_id", id))
		report.Updated++
	}
	return report, nil
}
