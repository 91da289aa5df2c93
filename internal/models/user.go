package models

// User is a bare identity row. Authentication, sessions, and profile
// management live outside this module; the ledger only needs a stable
// owner identifier.
type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}
