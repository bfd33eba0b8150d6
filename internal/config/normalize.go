package config

import "strings"

// normalize expands user paths and trims string fields so the rest of the
// system never sees "~" or stray whitespace.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	c.Serving.Backend = strings.ToLower(strings.TrimSpace(c.Serving.Backend))
	c.Serving.RemoteURL = strings.TrimSpace(c.Serving.RemoteURL)
	c.Serving.RemoteToken = strings.TrimSpace(c.Serving.RemoteToken)
	if c.Serving.ChunkBytes <= 0 {
		c.Serving.ChunkBytes = defaultChunkBytes
	}
	if c.Serving.MaxDownloadReads <= 0 {
		c.Serving.MaxDownloadReads = defaultMaxDownloadReads
	}
	if c.Serving.MaxDownloadBytes <= 0 {
		c.Serving.MaxDownloadBytes = defaultMaxDownloadBytes
	}
	return nil
}
