// Package flows implements the account-lifecycle flows of the job board:
// registration, login, logout, email verification, password reset, and
// company recruiter invitations.
//
// # Architecture boundaries
//
// Flows orchestrate the session and token stores plus two external
// collaborators reached only through interfaces: the relational user
// directory and the outbound mailer. This package makes no HTTP decisions
// and owns no Redis keys of its own.
package flows

import (
	"context"
	"errors"
)

var (
	// ErrAccountExists is returned when registering an email that is taken.
	ErrAccountExists = errors.New("flows: account already exists")
	// ErrInvalidCredentials is returned on login with a bad email or password.
	ErrInvalidCredentials = errors.New("flows: invalid credentials")
	// ErrTokenInvalid is returned when a presented token is missing, expired,
	// already consumed, or bound to a different account.
	ErrTokenInvalid = errors.New("flows: token invalid")
	// ErrUserNotFound is returned when a consumed token references an email
	// with no account behind it.
	ErrUserNotFound = errors.New("flows: user not found")
)

// User is the directory's view of an account. PasswordHash is a bcrypt hash.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	EmailVerified bool
}

// UserDirectory is the relational persistence layer for accounts. The finders
// return (nil, nil) when no account exists.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	AddCompanyRecruiter(ctx context.Context, companyID, userID string) error
}

// Mailer delivers account-flow emails. Implementations receive the raw token
// and own the link formatting.
type Mailer interface {
	SendEmailVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
	SendCompanyInvite(ctx context.Context, email, companyID, token string) error
}
