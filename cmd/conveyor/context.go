package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"conveyor/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverURL resolves the daemon API base URL: the --server flag wins, then
// the configured bind address.
func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if trimmed := strings.TrimSpace(*c.serverFlag); trimmed != "" {
			return strings.TrimRight(trimmed, "/")
		}
	}
	bind := ""
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		bind = strings.TrimSpace(cfg.Paths.APIBind)
	}
	if bind == "" {
		bind = "127.0.0.1:7519"
	}
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/")
	}
	return fmt.Sprintf("http://%s", bind)
}

func (c *commandContext) apiToken() string {
	if c.tokenFlag != nil {
		if trimmed := strings.TrimSpace(*c.tokenFlag); trimmed != "" {
			return trimmed
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.APIToken
	}
	return ""
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(c.serverURL(), c.apiToken())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
