package devauth

// Package devauth short-circuits the OAuth flow for local development. Begin
// redirects straight back to the callback handler and Exchange returns a
// fixed identity built from config, so the full login and provisioning path
// runs without an IdP.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/ports"
)

// Config describes the single identity the provider hands out.
type Config struct {
	UserID          string
	Email           string
	Groups          []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider for local development.
type Provider struct {
	cfg Config
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	return &Provider{cfg: cfg}, nil
}

// Begin returns a local callback URL with generated state and nonce. The
// callback handler expects GET /auth/callback?code=...&state=...
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	return "/auth/callback?code=dev&state=" + state, state, nonce, nil
}

// Exchange ignores the code and returns the configured identity with a fresh
// expiry. Names are derived from the email so first-login provisioning
// creates a readable account row.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	first, last := namesFromEmail(p.cfg.Email)
	return domainauth.Identity{
		UserID:    p.cfg.UserID,
		FirstName: first,
		LastName:  last,
		Email:     p.cfg.Email,
		Groups:    append([]string(nil), p.cfg.Groups...),
		ExpiresAt: time.Now().Add(p.cfg.SessionDuration),
	}, nil
}

// namesFromEmail splits the local part of an address like
// "jordan.doe@example.com" into ("Jordan", "Doe").
func namesFromEmail(email string) (string, string) {
	local, _, _ := strings.Cut(email, "@")
	first, last, found := strings.Cut(local, ".")
	if !found {
		return title(local), ""
	}
	return title(first), title(last)
}

func title(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
