package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rbacblog/internal/auth"
	"rbacblog/internal/domain"
	applog "rbacblog/internal/log"
	"rbacblog/internal/mail"
	"rbacblog/internal/repos"
	"rbacblog/internal/validate"
)

// UserStore is the credential store the auth flows run against.
type UserStore interface {
	auth.VerificationStore
	Create(ctx context.Context, u *domain.User) error
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResendInput struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginResult struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type AuthService struct {
	Users         UserStore
	Hasher        *auth.Hasher
	Tokens        *auth.TokenIssuer
	Verifications *auth.Verifications
	Mailer        mail.Sender
	Composer      *mail.Composer
	// ClientURL is the frontend origin; verification links point at its
	// /verify-email page.
	ClientURL string
	Now       func() time.Time

	pending sync.WaitGroup
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an unverified user and mails the verification link.
// Mail delivery runs in the background and its failure does not fail the
// registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.PublicUser, error) {
	if err := validate.Struct(&in); err != nil {
		return domain.PublicUser{}, withReason(ErrValidation, validate.Message(err))
	}

	exists, err := s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return domain.PublicUser{}, err
	}
	if exists {
		return domain.PublicUser{}, ErrConflict
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.PublicUser{}, err
	}
	token, expiry, err := s.Verifications.Generate()
	if err != nil {
		return domain.PublicUser{}, err
	}

	u := &domain.User{
		ID:                      uuid.NewString(),
		Name:                    in.Name,
		Email:                   in.Email,
		PasswordHash:            hash,
		Role:                    domain.RoleUser,
		VerificationToken:       token,
		VerificationTokenExpiry: expiry,
		CreatedAt:               s.now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, repos.ErrEmailTaken) {
			return domain.PublicUser{}, ErrConflict
		}
		return domain.PublicUser{}, err
	}

	s.sendVerification(u.Email, u.Name, token)
	return u.Public(), nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (domain.PublicUser, error) {
	u, err := s.Verifications.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrVerificationToken) {
			return domain.PublicUser{}, ErrInvalidOrExpiredToken
		}
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

// ResendVerification replaces the pending token of an unverified account and
// mails it again. Unknown or already verified emails succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, in ResendInput) error {
	if err := validate.Struct(&in); err != nil {
		return withReason(ErrValidation, validate.Message(err))
	}
	u, err := s.Users.ByEmail(ctx, in.Email)
	if errors.Is(err, repos.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.IsVerified {
		return nil
	}
	token, err := s.Verifications.Issue(ctx, u)
	if errors.Is(err, repos.ErrNotFound) {
		// verified in the meantime
		return nil
	}
	if err != nil {
		return err
	}
	s.sendVerification(u.Email, u.Name, token)
	return nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := validate.Struct(&in); err != nil {
		return LoginResult{}, withReason(ErrValidation, validate.Message(err))
	}

	u, err := s.Users.ByEmail(ctx, in.Email)
	if errors.Is(err, repos.ErrNotFound) {
		s.Hasher.Burn(in.Password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !s.Hasher.Verify(in.Password, u.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return LoginResult{}, ErrNotVerified
	}

	token, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u.Public(), Token: token}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.PublicUser, error) {
	if userID == "" {
		return domain.PublicUser{}, ErrUnauthenticated
	}
	u, err := s.Users.ByID(ctx, userID)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.PublicUser{}, withReason(ErrNotFound, "User not found")
	}
	if err != nil {
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

// Wait blocks until background mail dispatches have finished.
func (s *AuthService) Wait() { s.pending.Wait() }

func (s *AuthService) verificationLink(token string) string {
	return strings.TrimRight(s.ClientURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

func (s *AuthService) sendVerification(to, name, token string) {
	if s.Mailer == nil || s.Composer == nil {
		return
	}
	link := s.verificationLink(token)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		fields := map[string]any{"to": to}
		msg, err := s.Composer.Verification(to, name, link)
		if err != nil {
			applog.Error(nil, "mail.verification.fail", err, fields)
			return
		}
		if err := s.Mailer.Send(context.Background(), msg); err != nil {
			applog.Error(nil, "mail.verification.fail", err, fields)
			return
		}
		applog.Info(nil, "mail.verification.sent", fields)
	}()
}
