package flows

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jobboard/internal/session"
	"jobboard/internal/token"
)

// Service wires the account flows to their stores and collaborators. Build
// one at startup and share it; it holds no mutable state.
type Service struct {
	users      UserDirectory
	mail       Mailer
	sessions   *session.Store
	tokens     *token.Store
	bcryptCost int
	log        *slog.Logger
}

func NewService(
	users UserDirectory,
	mail Mailer,
	sessions *session.Store,
	tokens *token.Store,
	bcryptCost int,
	log *slog.Logger,
) *Service {
	return &Service{
		users:      users,
		mail:       mail,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and issues an email-verification token.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Create(ctx, token.KindVerify, token.Payload{Email: email})
	if err != nil {
		return nil, err
	}
	if err := s.mail.SendEmailVerification(ctx, email, tok); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string, meta session.Metadata) (string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	sid, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "login", "user_id", user.ID)
	return sid, nil
}

// Logout ends a single session. Idempotent.
func (s *Service) Logout(ctx context.Context, sid string) error {
	return s.sessions.Delete(ctx, sid)
}

// LogoutAll ends every session the user holds.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.DeleteAllForUser(ctx, userID)
}

// ActiveSessions lists the user's live sessions.
func (s *Service) ActiveSessions(ctx context.Context, userID string) ([]*session.Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

// ConfirmEmail redeems a verification token and marks the account verified.
func (s *Service) ConfirmEmail(ctx context.Context, tok string) error {
	payload, err := s.tokens.Consume(ctx, token.KindVerify, tok)
	if err != nil {
		return err
	}
	if payload == nil {
		return ErrTokenInvalid
	}

	user, err := s.users.FindByEmail(ctx, payload.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email verified", "user_id", user.ID)
	return nil
}

// RequestPasswordReset issues a reset token when the account exists. An
// unknown email succeeds silently so the endpoint does not leak which
// addresses have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	tok, err := s.tokens.Create(ctx, token.KindReset, token.Payload{Email: email})
	if err != nil {
		return err
	}
	return s.mail.SendPasswordReset(ctx, email, tok)
}

// ResetPassword redeems a reset token, replaces the password hash, and ends
// every existing session for the account.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	payload, err := s.tokens.Consume(ctx, token.KindReset, tok)
	if err != nil {
		return err
	}
	if payload == nil {
		return ErrTokenInvalid
	}

	user, err := s.users.FindByEmail(ctx, payload.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

// InviteRecruiter issues a company-scoped invite token and mails it.
func (s *Service) InviteRecruiter(ctx context.Context, companyID, email string) error {
	email = normalizeEmail(email)

	tok, err := s.tokens.Create(ctx, token.KindInvite, token.Payload{
		Email:     email,
		CompanyID: companyID,
	})
	if err != nil {
		return err
	}
	return s.mail.SendCompanyInvite(ctx, email, companyID, tok)
}

// AcceptInvite redeems an invite token on behalf of the authenticated user
// and attaches them to the inviting company. The token must have been issued
// to the user's own email.
func (s *Service) AcceptInvite(ctx context.Context, tok, userID string) (string, error) {
	payload, err := s.tokens.Consume(ctx, token.KindInvite, tok)
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "", ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if payload.Email != user.Email {
		return "", ErrTokenInvalid
	}

	if err := s.users.AddCompanyRecruiter(ctx, payload.CompanyID, userID); err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "invite accepted", "user_id", userID, "company_id", payload.CompanyID)
	return payload.CompanyID, nil
}
