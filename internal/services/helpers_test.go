package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rbacblog/internal/auth"
	"rbacblog/internal/mail"
	"rbacblog/internal/repos"
	"rbacblog/internal/services"
)

var t0 = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingSender) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

type fixture struct {
	svc    *services.AuthService
	users  *repos.UserRepo
	posts  *repos.PostRepo
	mailer *recordingSender
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	composer, err := mail.NewComposer()
	require.NoError(t, err)

	c := &clock{now: t0}
	users := repos.NewUserRepo(db)
	rec := &recordingSender{}
	svc := &services.AuthService{
		Users:         users,
		Hasher:        auth.NewHasher(bcrypt.MinCost),
		Tokens:        auth.NewTokenIssuer("test-secret", 24*time.Hour, c.Now),
		Verifications: auth.NewVerifications(users, 24*time.Hour, c.Now),
		Mailer:        rec,
		Composer:      composer,
		ClientURL:     "http://localhost:3000/",
		Now:           c.Now,
	}
	t.Cleanup(svc.Wait)
	return &fixture{svc: svc, users: users, posts: repos.NewPostRepo(db), mailer: rec, clock: c}
}

var errSMTPDown = errors.New("dial tcp 127.0.0.1:2525: connect: connection refused")
