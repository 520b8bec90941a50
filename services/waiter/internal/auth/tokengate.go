package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
)

// TokenGate signs in against the restaurant backend, which issues its own
// token and reports the role and permission flags of the user.
type TokenGate struct {
	baseURL string
	http    *http.Client
	logger  apt.Logger
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID          json.RawMessage `json:"id"`
		Username    string          `json:"username"`
		Email       string          `json:"email"`
		Name        string          `json:"name"`
		Role        string          `json:"role"`
		Permissions map[string]bool `json:"permissions"`
	} `json:"user"`
}

func NewTokenGate(baseURL string, hc *http.Client, logger apt.Logger) (*TokenGate, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("auth token url required")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &TokenGate{baseURL: baseURL, http: hc, logger: logger}, nil
}

func (g *TokenGate) Name() string {
	return ProviderToken
}

func (g *TokenGate) Login(ctx context.Context, creds Credentials) (*Principal, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	body, _ := json.Marshal(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	resp, err := g.post(ctx, "/login/", "", body)
	if err != nil {
		g.logger.Error("login request failed", "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case resp.StatusCode >= http.StatusMultipleChoices:
		g.logger.Error("login rejected by backend", "status", resp.StatusCode)
		return nil, ErrUnavailable
	}

	var payload loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if payload.Token == "" {
		return nil, ErrInvalidCredentials
	}

	role := ParseRole(payload.User.Role)
	perms := PermissionsFor(role)
	for name, granted := range payload.User.Permissions {
		perms[Permission(name)] = granted
	}

	p := &Principal{
		UserID:      rawID(payload.User.ID),
		Username:    payload.User.Username,
		Email:       payload.User.Email,
		Name:        payload.User.Name,
		Role:        role,
		Permissions: perms,
		Provider:    ProviderToken,
		Token:       payload.Token,
	}
	if p.Username == "" {
		p.Username = creds.Username
	}
	return p, nil
}

// Logout revokes the backend token. Failures are returned for logging; the
// local session is dropped either way.
func (g *TokenGate) Logout(ctx context.Context, p *Principal) error {
	if p == nil || p.Token == "" {
		return nil
	}
	resp, err := g.post(ctx, "/logout/", p.Token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout rejected: %d", resp.StatusCode)
	}
	return nil
}

func (g *TokenGate) post(ctx context.Context, path, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return g.http.Do(req)
}

// rawID accepts numeric and string user ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return ""
}
