package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbacblog/internal/domain"
	"rbacblog/internal/http/handlers"
)

func TestAuthEventsAreLogged(t *testing.T) {
	h := newHarness(t)
	h.verifiedUser(t, "Alice", "alice@example.com", "s3cretpass", domain.RoleUser)

	entries, text := captureLogs(t, func() {
		resp, _ := h.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		h.login(t, "alice@example.com", "s3cretpass")
	})

	fail, ok := findAction(entries, "auth.login.fail")
	require.True(t, ok, "auth.login.fail missing")
	assert.Equal(t, "security", fail.Kind)
	assert.Equal(t, "warn", fail.Level)
	assert.Equal(t, "bad_credentials", fail.Fields["reason"])

	success, ok := findAction(entries, "auth.login.success")
	require.True(t, ok, "auth.login.success missing")
	assert.Equal(t, "audit", success.Kind)
	assert.NotEmpty(t, success.UserID)

	assert.NotContains(t, text, "wrong-password")
	assert.NotContains(t, text, "s3cretpass")
}

func TestAccessDenialsAreLogged(t *testing.T) {
	h := newHarness(t)
	h.verifiedUser(t, "Alice", "alice@example.com", "s3cretpass", domain.RoleUser)
	user := h.login(t, "alice@example.com", "s3cretpass")

	entries, text := captureLogs(t, func() {
		h.do(t, "GET", "/api/v1/post", nil)
		h.do(t, "GET", "/api/v1/post", nil, &http.Cookie{Name: handlers.CookieName, Value: "junk"})
		h.do(t, "POST", "/api/v1/post/create", map[string]string{"title": "t", "content": "c"}, user)
	})

	var reasons []any
	for _, e := range entries {
		if e.Action == "access.denied.auth" {
			reasons = append(reasons, e.Fields["reason"])
		}
	}
	assert.Equal(t, []any{"missing", "invalid"}, reasons)

	admin, ok := findAction(entries, "access.denied.admin")
	require.True(t, ok, "access.denied.admin missing")
	assert.Equal(t, "user", admin.Fields["role"])
	assert.NotContains(t, text, user.Value)
}

func TestPostMutationsAreAudited(t *testing.T) {
	h := newHarness(t)
	h.verifiedUser(t, "Root", "root@example.com", "s3cretpass", domain.RoleAdmin)
	admin := h.login(t, "root@example.com", "s3cretpass")

	entries, _ := captureLogs(t, func() {
		resp, _ := h.do(t, "POST", "/api/v1/post/create", map[string]string{"title": "t", "content": "c"}, admin)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})
	e, ok := findAction(entries, "post.create")
	require.True(t, ok)
	assert.Equal(t, "audit", e.Kind)
	assert.NotEmpty(t, e.Fields["post_id"])
}
