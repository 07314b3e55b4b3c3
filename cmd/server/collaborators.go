package main

import (
	"context"
	"log/slog"
	"sync"

	"jobboard/internal/flows"
	"jobboard/internal/httpapi"
)

// memoryDirectory is an in-process UserDirectory for local development. The
// real deployment replaces it with the relational persistence layer.
type memoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*flows.User
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{users: map[string]*flows.User{}}
}

func (d *memoryDirectory) FindByID(_ context.Context, id string) (*flows.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (*flows.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *memoryDirectory) Create(_ context.Context, user *flows.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (d *memoryDirectory) SetPasswordHash(_ context.Context, userID, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (d *memoryDirectory) MarkEmailVerified(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[userID]; ok {
		u.EmailVerified = true
	}
	return nil
}

func (d *memoryDirectory) AddCompanyRecruiter(_ context.Context, companyID, userID string) error {
	return nil
}

// logMailer writes the would-be emails to the log instead of delivering them.
type logMailer struct {
	log *slog.Logger
}

func (m *logMailer) SendEmailVerification(ctx context.Context, email, token string) error {
	m.log.InfoContext(ctx, "verification mail", "email", email, "token", token)
	return nil
}

func (m *logMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.log.InfoContext(ctx, "password reset mail", "email", email, "token", token)
	return nil
}

func (m *logMailer) SendCompanyInvite(ctx context.Context, email, companyID, token string) error {
	m.log.InfoContext(ctx, "company invite mail", "email", email, "company_id", companyID, "token", token)
	return nil
}

type staticCatalog struct{}

func (staticCatalog) ListOpen(context.Context) ([]httpapi.Vacancy, error) {
	return []httpapi.Vacancy{}, nil
}
