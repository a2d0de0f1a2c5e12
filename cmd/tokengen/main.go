// Command tokengen prints an HS256 bearer token signed with the server's
// AUTH_SECRET, for local development and manual testing.
//
// USAGE:
//
//	tokengen -all                                  # every permission
//	tokengen -perm get:books -perm get:books_detail
//	tokengen -sub alice -ttl 15m -perm post:authors
//
// It reads the same configuration as the server (-config, CONFIG_FILE,
// .env, environment), so the issuer and audience match.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/sakif/bookstore-api/internal/auth"
	"github.com/sakif/bookstore-api/internal/config"
)

// permFlags collects repeated -perm values.
type permFlags []string

func (p *permFlags) String() string { return strings.Join(*p, ",") }

func (p *permFlags) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*p = append(*p, part)
		}
	}
	return nil
}

func main() {
	var perms permFlags
	configPath := flag.String("config", "", "path to a YAML config file (default: $CONFIG_FILE)")
	subject := flag.String("sub", "dev", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	all := flag.Bool("all", false, "grant every permission")
	flag.Var(&perms, "perm", "permission to grant (repeatable, or comma separated)")
	flag.Parse()

	if err := run(*configPath, *subject, *ttl, *all, perms); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func run(configPath, subject string, ttl time.Duration, all bool, perms []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return errors.New("AUTH_SECRET is not configured; JWKS-only servers need tokens from their identity provider")
	}

	if all {
		perms = auth.AllPermissions
	}
	if len(perms) == 0 {
		return errors.New("no permissions requested; use -perm or -all")
	}
	for _, p := range perms {
		if !slices.Contains(auth.AllPermissions, p) {
			fmt.Fprintf(os.Stderr, "tokengen: warning: %q is not checked by any route\n", p)
		}
	}

	tokens, err := auth.NewTokenService(auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return err
	}

	token, err := tokens.Issue(subject, perms, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
