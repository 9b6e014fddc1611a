package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"rbacblog/internal/auth"
	"rbacblog/internal/config"
	"rbacblog/internal/mail"
	"rbacblog/internal/repos"
	"rbacblog/internal/services"
)

type Deps struct {
	Auth        *services.AuthService
	Posts       *services.PostService
	Tokens      *auth.TokenIssuer
	AuthHandler *AuthHandler
	PostHandler *PostHandler
	CORSOrigins []string
}

// NewDeps builds repositories, services and handlers over one database
// handle.
func NewDeps(db *sqlx.DB, cfg config.Config, mailer mail.Sender) (*Deps, error) {
	composer, err := mail.NewComposer()
	if err != nil {
		return nil, err
	}

	userRepo := repos.NewUserRepo(db)
	postRepo := repos.NewPostRepo(db)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, time.Now)
	authSvc := &services.AuthService{
		Users:         userRepo,
		Hasher:        auth.NewHasher(bcrypt.DefaultCost),
		Tokens:        tokens,
		Verifications: auth.NewVerifications(userRepo, cfg.VerificationTTL, time.Now),
		Mailer:        mailer,
		Composer:      composer,
		ClientURL:     cfg.ClientURL,
		Now:           time.Now,
	}
	postSvc := services.NewPostService(postRepo)

	return &Deps{
		Auth:        authSvc,
		Posts:       postSvc,
		Tokens:      tokens,
		AuthHandler: &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure, CookieTTL: cfg.SessionTTL},
		PostHandler: &PostHandler{Posts: postSvc},
		CORSOrigins: cfg.CORSOrigins,
	}, nil
}
