package db

import "github.com/google/uuid"

// newID returns a fresh UUID string for row primary keys.
func newID() string {
	return uuid.NewString()
}
