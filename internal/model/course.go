package model

import "time"

// swagger:model Course
type Course struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	Title            string     `bson:"title" json:"title"`
	Description      string     `bson:"description" json:"description"`
	ShortDescription string     `bson:"shortDescription" json:"shortDescription"`
	Level            string     `bson:"level" json:"level"`
	Duration         string     `bson:"duration" json:"duration"`
	Category         string     `bson:"category" json:"category"`
	VideoURL         string     `bson:"videoUrl" json:"videoUrl"`
	ThumbnailURL     string     `bson:"thumbnailUrl" json:"thumbnailUrl"`
	Modules          []Module   `bson:"modules,omitempty" json:"modules"`
	IsActive         bool       `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt        *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

type Module struct {
	Title       string   `bson:"title" json:"title"`
	Description *string  `bson:"description,omitempty" json:"description,omitempty"`
	Lessons     []Lesson `bson:"lessons" json:"lessons"`
}

type Lesson struct {
	ID          string  `bson:"id" json:"id"`
	Title       string  `bson:"title" json:"title"`
	Description *string `bson:"description,omitempty" json:"description,omitempty"`
	Duration    *string `bson:"duration,omitempty" json:"duration,omitempty"`
	VideoURL    *string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
}

// TotalLessons sums the lessons of every module. A nil course or one without modules has none.
func (c *Course) TotalLessons() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

// FindLesson locates a lesson by id across modules.
func (c *Course) FindLesson(lessonID string) (moduleIdx, lessonIdx int, ok bool) {
	if c == nil {
		return 0, 0, false
	}
	for i, m := range c.Modules {
		for j, l := range m.Lessons {
			if l.ID == lessonID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// CourseWithLessons is a course as returned to readers, with the derived lesson count.
type CourseWithLessons struct {
	*Course
	TotalLessons int `json:"totalLessons"`
}
