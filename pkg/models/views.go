package models

import "time"

// UserView is the denormalized read model for a single user. It is produced
// only by projection and may lag the command-side User for a bounded window.
type UserView struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	Description string    `json:"description" bson:"description"`
	Permission  string    `json:"permission,omitempty" bson:"permission,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// PermissionGroupView aggregates the users holding one permission. There is
// at most one document per permission value; Users holds one embedded
// snapshot per user id.
type PermissionGroupView struct {
	Permission  string     `json:"permission" bson:"_id"`
	Description string     `json:"description" bson:"description"`
	Users       []UserView `json:"users" bson:"users"`
}
