package domain

import (
	"errors"

	"github.com/google/uuid"
)

// UserID is the stable identifier of an Account. It is referenced, never
// mutated, by the flow machinery.
type UserID uuid.UUID

// ErrInvalidUserID reports a malformed or nil user id string.
var ErrInvalidUserID = errors.New("domain: invalid user id")

// NewUserID mints a fresh random UserID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID validates s as a non-nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return UserID{}, ErrInvalidUserID
	}
	return UserID(u), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets UserID travel through JSON-encoded volatile records as a
// plain string.
func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
