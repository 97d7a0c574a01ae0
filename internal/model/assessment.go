package model

import (
	"sort"
	"time"
)

// swagger:model Assessment
type Assessment struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	Type        string     `bson:"type" json:"type"`
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool       `bson:"isActive" json:"isActive"`
	Questions   []Question `bson:"-" json:"questions"`
}

type Question struct {
	ID           string   `bson:"_id,omitempty" json:"id"`
	AssessmentID string   `bson:"assessmentId" json:"assessmentId"`
	Text         string   `bson:"text" json:"text"`
	Order        *int     `bson:"order,omitempty" json:"order,omitempty"`
	Position     *int     `bson:"position,omitempty" json:"position,omitempty"`
	Choices      []Choice `bson:"-" json:"choices"`
}

type Choice struct {
	ID              string `bson:"_id,omitempty" json:"id"`
	QuestionID      string `bson:"questionId" json:"questionId"`
	Text            string `bson:"text" json:"text"`
	LearningStyleID string `bson:"learningStyleId,omitempty" json:"learningStyleId,omitempty"`
	Points          *int   `bson:"points,omitempty" json:"points,omitempty"`
	Order           *int   `bson:"order,omitempty" json:"order,omitempty"`
	Position        *int   `bson:"position,omitempty" json:"position,omitempty"`
}

// sortKey is order, then position when order is unset or zero, then 0.
func sortKey(order, position *int) int {
	if order != nil && *order != 0 {
		return *order
	}
	if position != nil && *position != 0 {
		return *position
	}
	return 0
}

func (q *Question) SortKey() int { return sortKey(q.Order, q.Position) }

func (c *Choice) SortKey() int { return sortKey(c.Order, c.Position) }

// SortQuestions orders by SortKey; ties keep their stored order.
func SortQuestions(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].SortKey() < qs[j].SortKey() })
}

func SortChoices(cs []Choice) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].SortKey() < cs[j].SortKey() })
}

// FindChoice returns the choice with id among the question's choices.
func (q *Question) FindChoice(id string) (*Choice, bool) {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i], true
		}
	}
	return nil, false
}

type AssessmentAttempt struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserID       string    `bson:"userId" json:"userId"`
	AssessmentID string    `bson:"assessmentId" json:"assessmentId"`
	Status       string    `bson:"status" json:"status"`
	Score        int       `bson:"score" json:"score"`
	StartedAt    time.Time `bson:"startedAt" json:"startedAt"`
	CompletedAt  time.Time `bson:"completedAt" json:"completedAt"`
}

// AttemptAnswer is one answered question. LearningStyleID may be empty when the chosen
// option carries no style; Points defaults to 1 when unset.
type AttemptAnswer struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	AttemptID       string    `bson:"attemptId" json:"attemptId"`
	QuestionID      string    `bson:"questionId" json:"questionId"`
	ChoiceID        string    `bson:"choiceId" json:"choiceId"`
	LearningStyleID string    `bson:"learningStyleId,omitempty" json:"learningStyleId,omitempty"`
	Points          *int      `bson:"points,omitempty" json:"points,omitempty"`
	AnsweredAt      time.Time `bson:"answeredAt" json:"answeredAt"`
}

// PointsOrDefault counts a missing or zero weight as one point.
func (a *AttemptAnswer) PointsOrDefault() int {
	if a.Points == nil || *a.Points == 0 {
		return 1
	}
	return *a.Points
}

type UserLearningStyle struct {
	ID                  string    `bson:"_id,omitempty" json:"id"`
	UserID              string    `bson:"userId" json:"userId"`
	LearningStyleID     string    `bson:"learningStyleId" json:"learningStyleId"`
	AssessmentAttemptID string    `bson:"assessmentAttemptId" json:"assessmentAttemptId"`
	AssignedAt          time.Time `bson:"assignedAt" json:"assignedAt"`
}

// TestResult is what a submitted learning-style test hands back.
type TestResult struct {
	AttemptID       string         `json:"attemptId"`
	LearningStyleID string         `json:"learningStyleId"`
	LearningStyle   *LearningStyle `json:"learningStyle,omitempty"`
}
