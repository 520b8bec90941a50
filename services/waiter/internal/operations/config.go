package operations

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/pkg/floor"
	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultSessionTTL   = 8 * time.Hour
	DefaultSessionName  = "waiter_session"
)

// Config is the typed view of the waiter settings.
type Config struct {
	APIURL          string
	PollInterval    time.Duration
	SessionName     string
	SessionTTL      time.Duration
	KeepDraftOnBack bool
	Tiers           floor.Tiers
	NATSURL         string
	Auth            auth.Config
}

// Settings is the read side of *apt.Config.
type Settings interface {
	GetString(key string) (string, bool)
	GetStringOrDef(key, def string) string
}

var _ Settings = (*apt.Config)(nil)

// LoadConfig reads the waiter settings. Missing durations fall back to their
// defaults; malformed ones are an error.
func LoadConfig(cfg Settings) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("config is nil")
	}

	c := Config{
		APIURL:      strings.TrimSpace(cfg.GetStringOrDef("api.url", "")),
		SessionName: cfg.GetStringOrDef("auth.session.name", DefaultSessionName),
		NATSURL:     strings.TrimSpace(cfg.GetStringOrDef("nats.url", "")),
		Auth: auth.Config{
			Provider: cfg.GetStringOrDef("auth.provider", auth.ProviderGroups),
			TokenURL: cfg.GetStringOrDef("auth.token.url", ""),
			IdP: auth.IdPConfig{
				PublicKeyPEM: cfg.GetStringOrDef("auth.idp.public_key", ""),
				Secret:       cfg.GetStringOrDef("auth.idp.secret", ""),
				GroupsClaim:  cfg.GetStringOrDef("auth.idp.groups_claim", auth.DefaultGroupsClaim),
				AdminGroup:   cfg.GetStringOrDef("auth.idp.admin_group", auth.DefaultAdminGroup),
				WaiterGroup:  cfg.GetStringOrDef("auth.idp.waiter_group", auth.DefaultWaiterGroup),
			},
		},
	}

	if c.APIURL == "" {
		return Config{}, fmt.Errorf("api.url is required")
	}

	var err error
	if c.PollInterval, err = durationOrDef(cfg, "poll.interval", DefaultPollInterval); err != nil {
		return Config{}, err
	}
	if c.SessionTTL, err = durationOrDef(cfg, "auth.session.ttl", DefaultSessionTTL); err != nil {
		return Config{}, err
	}
	if c.Tiers.Warning, err = durationOrDef(cfg, "urgency.warning", floor.DefaultWarningAfter); err != nil {
		return Config{}, err
	}
	if c.Tiers.Danger, err = durationOrDef(cfg, "urgency.danger", floor.DefaultDangerAfter); err != nil {
		return Config{}, err
	}
	if c.Tiers.Danger < c.Tiers.Warning {
		return Config{}, fmt.Errorf("urgency.danger (%s) must not be below urgency.warning (%s)", c.Tiers.Danger, c.Tiers.Warning)
	}

	if raw, ok := cfg.GetString("navigation.keep_draft_on_back"); ok && strings.TrimSpace(raw) != "" {
		keep, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid navigation.keep_draft_on_back %q: %w", raw, err)
		}
		c.KeepDraftOnBack = keep
	}

	return c, nil
}

func durationOrDef(cfg Settings, key string, def time.Duration) (time.Duration, error) {
	raw, ok := cfg.GetString(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
