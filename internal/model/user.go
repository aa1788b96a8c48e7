package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	FullName string
}
