// Package uuid generates time-ordered identifiers for database primary keys.
package uuid

import googleuuid "github.com/google/uuid"

// New returns a new UUIDv7 string. UUIDv7 is time-ordered, which keeps
// index pages warm when rows are inserted in creation order. Falls back
// to a random UUIDv4 if the system entropy source fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse validates and normalizes a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid reports whether s is a well-formed UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
