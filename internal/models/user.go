package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the approval state of a user profile.
type AccountStatus string

const (
	StatusPending AccountStatus = "pending"
	StatusActive  AccountStatus = "active"
	StatusBanned  AccountStatus = "banned"
)

// ParseAccountStatus returns the status named by s; ok is false for values
// outside the known set.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch AccountStatus(s) {
	case StatusPending, StatusActive, StatusBanned:
		return AccountStatus(s), true
	default:
		return AccountStatus(s), false
	}
}

// CanTransition reports whether an admin may move a profile from one status
// to another. Re-applying the current status is allowed and changes nothing.
func CanTransition(from, to AccountStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusActive
	case StatusActive:
		return to == StatusBanned
	case StatusBanned:
		return to == StatusActive
	default:
		return false
	}
}

// CanGenerate reports whether a profile in status s may generate documents.
func (s AccountStatus) CanGenerate() bool {
	return s == StatusActive
}

type User struct {
	ID        uuid.UUID     `db:"id"`
	Email     string        `db:"email"`
	Password  string        `db:"password"`
	Status    AccountStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
