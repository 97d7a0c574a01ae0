package model

import "time"

// ProgressStatus is the three-way classification of a progress row.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in-progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// swagger:model UserProgress
type UserProgress struct {
	ID                 string     `bson:"_id,omitempty" json:"id"`
	UserID             string     `bson:"userId" json:"userId"`
	CourseID           string     `bson:"courseId" json:"courseId"`
	CompletedLessons   int        `bson:"completedLessons" json:"completedLessons"`
	TotalLessons       int        `bson:"totalLessons" json:"totalLessons"`
	ProgressPercentage int        `bson:"progressPercentage" json:"progressPercentage"`
	CompletedLessonIDs []string   `bson:"completedLessonIds" json:"completedLessonIds"`
	LastAccessedAt     time.Time  `bson:"lastAccessedAt" json:"lastAccessedAt"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ProgressPercentage is round(100*completed/total), rounding halves up, or 0 when total is 0.
// It never exceeds 100, even when lessons were removed from the course after completion.
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

// HasCompleted reports whether lessonID is already recorded.
func (p *UserProgress) HasCompleted(lessonID string) bool {
	for _, id := range p.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Recompute derives the counters from the completed set and the live lesson total.
func (p *UserProgress) Recompute(totalLessons int) {
	p.TotalLessons = totalLessons
	p.CompletedLessons = len(p.CompletedLessonIDs)
	p.ProgressPercentage = ProgressPercentage(p.CompletedLessons, p.TotalLessons)
}

// Classify is the only place progress is bucketed.
func Classify(p *UserProgress) ProgressStatus {
	switch {
	case p.ProgressPercentage <= 0:
		return ProgressPending
	case p.ProgressPercentage >= 100:
		return ProgressCompleted
	default:
		return ProgressInProgress
	}
}

type ProgressWithCourse struct {
	UserProgress
	Status ProgressStatus `json:"status"`
	Course *Course        `json:"course"`
}

// UserStatistics keeps the field names the front end reads.
type UserStatistics struct {
	TotalCursos       int `json:"totalCursos"`
	CursosCompletados int `json:"cursosCompletados"`
	CursosEnProgreso  int `json:"cursosEnProgreso"`
	CursosPendientes  int `json:"cursosPendientes"`
}
