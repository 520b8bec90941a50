package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
)

const (
	ProviderGroups = "groups"
	ProviderToken  = "token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("identity token required")
	ErrUnavailable        = errors.New("authentication service unavailable")
)

// Credentials carries either a username and password or a token already
// issued by the identity provider.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Gate signs principals in and out. Exactly one variant is active per process.
type Gate interface {
	Login(ctx context.Context, creds Credentials) (*Principal, error)
	Logout(ctx context.Context, p *Principal) error
	Name() string
}

type Config struct {
	Provider   string
	TokenURL   string
	IdP        IdPConfig
	HTTPClient *http.Client
}

// IdPConfig describes how to verify identity provider access tokens.
type IdPConfig struct {
	PublicKeyPEM string
	Secret       string
	GroupsClaim  string
	AdminGroup   string
	WaiterGroup  string
}

// NewGate builds the variant named by cfg.Provider.
func NewGate(cfg Config, logger apt.Logger) (Gate, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGroups, "":
		return NewGroupGate(cfg.IdP, logger)
	case ProviderToken:
		return NewTokenGate(cfg.TokenURL, cfg.HTTPClient, logger)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
