package auth

import "time"

// Operator is a back-office account allowed to sign in.
type Operator struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
