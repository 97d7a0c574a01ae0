package model

import "time"

// swagger:model User
type User struct {
	ID                      string     `bson:"_id,omitempty" json:"id"`
	Email                   string     `bson:"email" json:"email"`
	DisplayName             string     `bson:"displayName" json:"displayName"`
	Name                    string     `bson:"name" json:"name"`
	LearningStyleID         *string    `bson:"learningStyleId,omitempty" json:"learningStyleId"`
	LearningStyleAssignedAt *time.Time `bson:"learningStyleAssignedAt,omitempty" json:"learningStyleAssignedAt,omitempty"`
	CreatedAt               time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HasLearningStyle() bool {
	return u != nil && u.LearningStyleID != nil && *u.LearningStyleID != ""
}

// swagger:model Role
type Role struct {
	ID   string `bson:"_id,omitempty" json:"id"`
	Name string `bson:"name" json:"name"`
}

// UserRole links a user to one role.
type UserRole struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	RoleID     string    `bson:"roleId" json:"roleId"`
	AssignedAt time.Time `bson:"assignedAt" json:"assignedAt"`
}
