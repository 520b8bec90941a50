package commands

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// Settings is the read side of *apt.Config.
type Settings interface {
	GetString(key string) (string, bool)
	GetStringOrDef(key, def string) string
}

func newClient(config Settings, logger apt.Logger) (*pos.Client, error) {
	apiURL := strings.TrimSpace(config.GetStringOrDef("api.url", ""))
	if apiURL == "" {
		return nil, fmt.Errorf("api.url is required")
	}
	client := pos.NewClient(apiURL, logger)
	if token, ok := config.GetString("api.token"); ok && token != "" {
		client = client.WithToken(token)
	}
	return client, nil
}
