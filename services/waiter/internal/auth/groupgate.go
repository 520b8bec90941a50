package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultGroupsClaim = "cognito:groups"
	DefaultAdminGroup  = "administradores"
	DefaultWaiterGroup = "meseros"
)

// GroupGate trusts access tokens issued by a hosted identity provider and
// derives the role from the token's group membership.
type GroupGate struct {
	publicKey   *rsa.PublicKey
	secret      []byte
	groupsClaim string
	adminGroup  string
	waiterGroup string
	logger      apt.Logger
}

func NewGroupGate(cfg IdPConfig, logger apt.Logger) (*GroupGate, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	g := &GroupGate{
		groupsClaim: orDefault(cfg.GroupsClaim, DefaultGroupsClaim),
		adminGroup:  orDefault(cfg.AdminGroup, DefaultAdminGroup),
		waiterGroup: orDefault(cfg.WaiterGroup, DefaultWaiterGroup),
		logger:      logger,
	}

	if pem := strings.TrimSpace(cfg.PublicKeyPEM); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("invalid idp public key: %w", err)
		}
		g.publicKey = key
	} else if cfg.Secret != "" {
		g.secret = []byte(cfg.Secret)
	} else {
		return nil, errors.New("idp public key or secret required")
	}
	return g, nil
}

func (g *GroupGate) Name() string {
	return ProviderGroups
}

// Login verifies creds.Token. Username and password are not accepted here;
// the identity provider owns that exchange.
func (g *GroupGate) Login(ctx context.Context, creds Credentials) (*Principal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(creds.Token, "Bearer "))
	if raw == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(raw, g.keyFunc, jwt.WithValidMethods(g.methods()), jwt.WithExpirationRequired())
	if err != nil {
		g.logger.Debug("idp token rejected", "error", err)
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	role := g.roleFor(groupsFrom(claims[g.groupsClaim]))
	p := &Principal{
		UserID:      stringClaim(claims, "sub"),
		Username:    firstClaim(claims, "username", "cognito:username"),
		Email:       stringClaim(claims, "email"),
		Name:        stringClaim(claims, "name"),
		Role:        role,
		Permissions: PermissionsFor(role),
		Provider:    ProviderGroups,
		Token:       raw,
	}
	if !p.IsAuthenticated() {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// Logout is local only; the identity provider session is ended by the client.
func (g *GroupGate) Logout(ctx context.Context, p *Principal) error {
	return nil
}

// roleFor checks the admin group before the waiter group.
func (g *GroupGate) roleFor(groups []string) Role {
	has := func(name string) bool {
		for _, group := range groups {
			if group == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(g.adminGroup):
		return RoleAdmin
	case has(g.waiterGroup):
		return RoleWaiter
	default:
		return RoleNone
	}
}

func (g *GroupGate) keyFunc(t *jwt.Token) (interface{}, error) {
	if g.publicKey != nil {
		return g.publicKey, nil
	}
	return g.secret, nil
}

func (g *GroupGate) methods() []string {
	if g.publicKey != nil {
		return []string{jwt.SigningMethodRS256.Alg()}
	}
	return []string{jwt.SigningMethodHS256.Alg()}
}

func groupsFrom(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s := stringClaim(claims, key); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
