package domain

import (
	"fmt"
	"time"
)

// UserToken maps a bearer token hash to an intranet user.
type UserToken struct {
	ID        string
	UserID    string
	Name      string
	KeyHash   string // Never store plaintext tokens
	CreatedAt time.Time
	RevokedAt *time.Time
}

// NewUserToken creates a new UserToken instance
func NewUserToken(id, userID, name, keyHash string, createdAt time.Time, revokedAt *time.Time) *UserToken {
	return &UserToken{
		ID:        id,
		UserID:    userID,
		Name:      name,
		KeyHash:   keyHash,
		CreatedAt: createdAt,
		RevokedAt: revokedAt,
	}
}

// IsRevoked returns true if the token has been revoked
func (t *UserToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// ValidateUserToken validates a UserToken instance
func ValidateUserToken(t *UserToken) error {
	if t == nil {
		return fmt.Errorf("user token cannot be nil")
	}

	if t.ID == "" {
		return fmt.Errorf("user token ID is required")
	}

	if t.UserID == "" {
		return fmt.Errorf("user token UserID is required")
	}

	if t.Name == "" {
		return fmt.Errorf("user token Name is required")
	}

	if t.KeyHash == "" {
		return fmt.Errorf("user token KeyHash is required")
	}

	return nil
}
