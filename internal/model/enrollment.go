package model

import "time"

// swagger:model Enrollment
type Enrollment struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	CourseID   string    `bson:"courseId" json:"courseId"`
	EnrolledAt time.Time `bson:"enrolledAt" json:"enrolledAt"`
	Status     string    `bson:"status" json:"status"`
}

type EnrollmentWithCourse struct {
	Enrollment
	Course *Course `json:"course"`
}
