// Package model defines the data structures used throughout the application.
//
// Each persistent entity comes in two shapes:
//   - the full record (User, Model, Annotation) as read back from storage
//   - the insert shape (InsertUser, InsertModel, InsertAnnotation) holding only
//     the fields a caller may supply; ids and timestamps are assigned by storage.
//
// JSON keys match the payload keys declared in internal/schema.
package model

// User represents a registered user account.
//
// The username identifies the user everywhere else (Model.UploadedBy,
// Annotation.CreatedBy, the JWT subject). There is no separate internal id.
//
// Password holds whatever the storage layer was given. The auth service only
// ever stores a bcrypt hash here, and the field is never serialised to JSON.
type User struct {
	Username string `json:"username" db:"username"`
	Password string `json:"-"        db:"password"`
}

// InsertUser is the caller-supplied shape for registering a user.
type InsertUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
