package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "waiter-test-secret"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func baseClaims(groups ...interface{}) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":            "user-1",
		"username":       "ana",
		"email":          "ana@example.com",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"cognito:groups": groups,
	}
}

func TestGroupGateRoles(t *testing.T) {
	gate, err := NewGroupGate(IdPConfig{Secret: testSecret}, nil)
	if err != nil {
		t.Fatalf("NewGroupGate() error = %v", err)
	}

	tests := []struct {
		name     string
		groups   []interface{}
		wantRole Role
		can      map[Permission]bool
	}{
		{
			name:     "admin",
			groups:   []interface{}{"administradores"},
			wantRole: RoleAdmin,
			can:      map[Permission]bool{CanViewDashboard: true, CanManageConfig: true, CanViewHistory: true},
		},
		{
			name:     "waiter",
			groups:   []interface{}{"meseros"},
			wantRole: RoleWaiter,
			can: map[Permission]bool{
				CanViewDashboard:   false,
				CanManageConfig:    false,
				CanManageInventory: false,
				CanViewHistory:     false,
				CanManageOrders:    true,
				CanViewKitchen:     true,
				CanViewTableStatus: true,
				CanManagePayments:  true,
			},
		},
		{
			name:     "adminWins",
			groups:   []interface{}{"meseros", "administradores"},
			wantRole: RoleAdmin,
			can:      map[Permission]bool{CanManageInventory: true},
		},
		{
			name:     "noKnownGroup",
			groups:   []interface{}{"cocina"},
			wantRole: RoleNone,
			can:      map[Permission]bool{CanManageOrders: false, CanViewTableStatus: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signHS256(t, baseClaims(tt.groups...))

			p, err := gate.Login(context.Background(), Credentials{Token: token})
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if p.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", p.Role, tt.wantRole)
			}
			for perm, want := range tt.can {
				if got := p.Can(perm); got != want {
					t.Errorf("Can(%s) = %v, want %v", perm, got, want)
				}
			}
			if p.Token != token {
				t.Error("Token not kept for forwarding")
			}
		})
	}
}

func TestGroupGateRejects(t *testing.T) {
	gate, _ := NewGroupGate(IdPConfig{Secret: testSecret}, nil)

	expired := baseClaims("meseros")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := baseClaims("meseros")
	delete(noExp, "exp")

	wrongKey, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims("meseros")).SignedString([]byte("other"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidCredentials},
		{name: "expired", token: signHS256(t, expired), want: ErrInvalidCredentials},
		{name: "noExpiry", token: signHS256(t, noExp), want: ErrInvalidCredentials},
		{name: "wrongKey", token: wrongKey, want: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Login(context.Background(), Credentials{Token: tt.token})
			if !errors.Is(err, tt.want) {
				t.Errorf("Login() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGroupGateRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	gate, err := NewGroupGate(IdPConfig{PublicKeyPEM: pemKey}, nil)
	if err != nil {
		t.Fatalf("NewGroupGate() error = %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims("meseros")).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p, err := gate.Login(context.Background(), Credentials{Token: "Bearer " + token})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !p.IsWaiter() || p.WaiterName() != "ana" {
		t.Errorf("principal = %+v", p)
	}

	hsToken := signHS256(t, baseClaims("meseros"))
	if _, err := gate.Login(context.Background(), Credentials{Token: hsToken}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("HS256 token accepted by RS256 gate: %v", err)
	}
}

func TestNewGroupGateRequiresKey(t *testing.T) {
	if _, err := NewGroupGate(IdPConfig{}, nil); err == nil {
		t.Error("NewGroupGate() without key should fail")
	}
	if _, err := NewGroupGate(IdPConfig{PublicKeyPEM: "nope"}, nil); err == nil {
		t.Error("NewGroupGate() with bad PEM should fail")
	}
}

func TestTokenGateLogin(t *testing.T) {
	var logoutAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login/":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "bad credentials"}`))
				return
			}
			w.Write([]byte(`{"token": "abc123", "user": {"id": 42, "username": "luis", "email": "luis@example.com",
				"role": "waiter", "permissions": {"can_view_history": true, "can_manage_payments": false}}}`))
		case "/logout/":
			logoutAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	gate, err := NewTokenGate(srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("NewTokenGate() error = %v", err)
	}

	p, err := gate.Login(context.Background(), Credentials{Username: "luis", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if p.UserID != "42" || p.Role != RoleWaiter || p.Token != "abc123" {
		t.Errorf("principal = %+v", p)
	}
	if !p.Can(CanViewHistory) {
		t.Error("explicit flag should grant can_view_history")
	}
	if p.Can(CanManagePayments) {
		t.Error("explicit flag should revoke can_manage_payments")
	}
	if !p.Can(CanManageOrders) {
		t.Error("role default can_manage_orders lost")
	}

	if err := gate.Logout(context.Background(), p); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
	if logoutAuth != "Bearer abc123" {
		t.Errorf("logout Authorization = %q", logoutAuth)
	}

	if _, err := gate.Login(context.Background(), Credentials{Username: "luis", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() wrong password error = %v", err)
	}
	if _, err := gate.Login(context.Background(), Credentials{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() empty credentials error = %v", err)
	}
}

func TestTokenGateUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gate, _ := NewTokenGate(srv.URL, nil, nil)
	_, err := gate.Login(context.Background(), Credentials{Username: "a", Password: "b"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Login() error = %v, want ErrUnavailable", err)
	}
}

func TestNewGate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "groupsDefault", cfg: Config{IdP: IdPConfig{Secret: "s"}}, wantName: ProviderGroups},
		{name: "token", cfg: Config{Provider: "token", TokenURL: "http://auth.local"}, wantName: ProviderToken},
		{name: "tokenWithoutURL", cfg: Config{Provider: "token"}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "ldap"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, err := NewGate(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && gate.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", gate.Name(), tt.wantName)
			}
		})
	}
}

func TestPrincipalWaiterName(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		want string
	}{
		{name: "username", p: &Principal{Username: "ana", Email: "a@x.com"}, want: "ana"},
		{name: "email", p: &Principal{UserID: "1", Email: "a@x.com"}, want: "a@x.com"},
		{name: "fallback", p: &Principal{UserID: "1"}, want: "Sistema"},
		{name: "nil", p: nil, want: "Sistema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.WaiterName(); got != tt.want {
				t.Errorf("WaiterName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrincipalUnauthenticatedCannot(t *testing.T) {
	p := &Principal{Permissions: PermissionsFor(RoleAdmin)}
	if p.Can(CanManageOrders) {
		t.Error("Can() = true for a principal without identity")
	}
}
