package config

import (
	"errors"
	"fmt"
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir is required")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir is required")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	switch c.Serving.Backend {
	case "", BackendFile:
	case BackendRemote:
		if c.Serving.RemoteURL == "" {
			return errors.New("serving.remote_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("serving.backend: unsupported value %q", c.Serving.Backend)
	}

	return nil
}
