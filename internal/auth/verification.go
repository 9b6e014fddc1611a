package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"rbacblog/internal/domain"
	"rbacblog/internal/repos"
)

var ErrVerificationToken = errors.New("invalid or expired verification token")

// VerificationStore persists the single pending token of a user. A token
// that matches nothing live is reported as repos.ErrNotFound.
type VerificationStore interface {
	SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
}

// Verifications manages one-time email verification tokens.
type Verifications struct {
	store VerificationStore
	ttl   time.Duration
	now   func() time.Time
}

func NewVerifications(store VerificationStore, ttl time.Duration, now func() time.Time) *Verifications {
	if now == nil {
		now = time.Now
	}
	return &Verifications{store: store, ttl: ttl, now: now}
}

// Generate returns a fresh 32-byte hex token and its expiry without storing it.
func (v *Verifications) Generate() (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(b), v.now().Add(v.ttl), nil
}

// Issue stores a new token on u, replacing any outstanding one.
func (v *Verifications) Issue(ctx context.Context, u *domain.User) (string, error) {
	token, expiry, err := v.Generate()
	if err != nil {
		return "", err
	}
	if err := v.store.SetVerificationToken(ctx, u.ID, token, expiry); err != nil {
		return "", err
	}
	u.VerificationToken = token
	u.VerificationTokenExpiry = expiry
	return token, nil
}

// Consume verifies the owner of token if it is still live. Lookup misses,
// expired and already-used tokens all yield ErrVerificationToken.
func (v *Verifications) Consume(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrVerificationToken
	}
	u, err := v.store.ConsumeVerificationToken(ctx, token, v.now())
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrVerificationToken
		}
		return nil, err
	}
	return u, nil
}
