// Command rbacctl performs operator tasks against the blog database.
//
//	rbacctl -email alice@example.com -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"rbacblog/internal/domain"
	"rbacblog/internal/repos"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rbacctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("rbacctl", flag.ContinueOnError)
	dsn := fs.String("dsn", envOr("DB_DSN", "rbac.db"), "database DSN")
	email := fs.String("email", "", "account email")
	role := fs.String("role", string(domain.RoleAdmin), "role to assign (user|admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	r := domain.Role(*role)
	if !r.Valid() {
		return fmt.Errorf("unknown role %q", *role)
	}

	db, err := repos.OpenDB(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repos.NewUserRepo(db).SetRole(ctx, *email, r); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return fmt.Errorf("no account for %s", *email)
		}
		return err
	}
	fmt.Printf("%s is now %s\n", *email, r)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
