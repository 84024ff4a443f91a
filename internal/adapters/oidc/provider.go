package oidc

// Package oidc adapts an OpenID Connect identity provider to
// ports.AuthProvider. Discovery runs once at construction; the id_token
// verifier caches the JWKS from the discovered endpoint.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/ports"
)

// Provider implements ports.AuthProvider against an OIDC/OAuth2 IdP.
type Provider struct {
	oauth    *oauth2.Config
	remote   *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
}

// ProviderConfig holds the client registration and discovery location.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // optional; defaults to a 30s-timeout client
}

// NewProvider fetches the discovery document and builds the provider.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// go-oidc expects the bare issuer, not the full well-known path.
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	remote, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Provider{
		remote:   remote,
		verifier: remote.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     remote.Endpoint(),
		},
	}, nil
}

// Begin starts the authorization code flow and returns the IdP URL the
// caller should redirect to, plus the state and nonce to bind the callback.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri must stay exactly as registered, so it is not overridden
	// from the input here.
	authURL := p.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	return authURL, state, nonce, nil
}

// Exchange redeems the authorization code, verifies the id_token against the
// expected nonce, and maps the claims to a domain identity. Claims missing
// from the id_token are filled from the userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	token, err := p.oauth.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.verifiedClaims(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}

	if claims.subject() == "" || claims.email() == "" {
		userInfo, uiErr := p.userInfoClaims(ctx, token.AccessToken)
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		claims.fill(userInfo)
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	identity := claims.identity()
	identity.ExpiresAt = expiresAt
	return identity, nil
}

// providerClaims covers both standard OIDC claims and the directory-style
// claims the corporate IdP emits. Standard claims win; directory claims fill
// the gaps.
type providerClaims struct {
	Subject    string   `json:"sub"`
	Email      string   `json:"email"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Groups     []string `json:"groups"`
	Nonce      string   `json:"nonce"`

	AccountName string   `json:"samaccountname"`
	Mail        string   `json:"mail"`
	FirstName   string   `json:"firstname"`
	LastName    string   `json:"lastname"`
	MemberOf    []string `json:"memberof"`
}

func (c providerClaims) subject() string {
	return firstNonEmpty(c.AccountName, c.Subject)
}

func (c providerClaims) email() string {
	return firstNonEmpty(c.Email, c.Mail)
}

func (c providerClaims) givenName() string {
	return firstNonEmpty(c.GivenName, c.FirstName)
}

func (c providerClaims) familyName() string {
	return firstNonEmpty(c.FamilyName, c.LastName)
}

func (c providerClaims) groups() []string {
	if len(c.Groups) > 0 {
		return c.Groups
	}
	return c.MemberOf
}

// fill copies values from other into fields that are still empty.
func (c *providerClaims) fill(other providerClaims) {
	if c.subject() == "" {
		c.Subject = other.subject()
	}
	if c.email() == "" {
		c.Email = other.email()
	}
	if c.givenName() == "" {
		c.GivenName = other.givenName()
	}
	if c.familyName() == "" {
		c.FamilyName = other.familyName()
	}
	if len(c.groups()) == 0 {
		c.Groups = other.groups()
	}
}

func (c providerClaims) identity() domainauth.Identity {
	return domainauth.Identity{
		UserID:    c.subject(),
		FirstName: c.givenName(),
		LastName:  c.familyName(),
		Email:     c.email(),
		Groups:    c.groups(),
	}
}

// verifiedClaims extracts and verifies the id_token claims. Without the
// openid scope there is no id_token and empty claims are returned.
func (p *Provider) verifiedClaims(ctx context.Context, token *oauth2.Token, expectedNonce string) (providerClaims, error) {
	var claims providerClaims
	if !p.hasOpenIDScope() {
		return claims, nil
	}

	rawID, err := rawIDToken(token)
	if err != nil {
		return claims, err
	}
	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return claims, fmt.Errorf("verify id_token: %w", err)
	}
	if err := idToken.Claims(&claims); err != nil {
		return claims, fmt.Errorf("parse id_token claims: %w", err)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return providerClaims{}, errors.New("invalid nonce")
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, accessToken string) (providerClaims, error) {
	var claims providerClaims
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	userInfo, err := p.remote.UserInfo(ctx, source)
	if err != nil {
		return claims, fmt.Errorf("fetch user info: %w", err)
	}
	if err := userInfo.Claims(&claims); err != nil {
		return claims, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

func (p *Provider) hasOpenIDScope() bool {
	for _, scope := range p.oauth.Scopes {
		if scope == "openid" {
			return true
		}
	}
	return false
}

// rawIDToken extracts the id_token from the token response.
func rawIDToken(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", errors.New("nil token")
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("missing id_token in token response")
	}
	return raw, nil
}

// randomToken returns a URL-safe string with 256 bits of entropy.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
