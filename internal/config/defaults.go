package config

const (
	defaultLogDir               = "~/.local/share/conveyor/logs"
	defaultDataDir              = "~/.local/share/conveyor"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
	defaultBackend              = BackendFile
	defaultRemoteTimeoutSeconds = 30
	defaultChunkBytes           = 1 << 20
	defaultMaxDownloadReads     = 10000
	defaultMaxDownloadBytes     = 512 << 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Serving: Serving{
			Backend:              defaultBackend,
			RemoteTimeoutSeconds: defaultRemoteTimeoutSeconds,
			ChunkBytes:           defaultChunkBytes,
			MaxDownloadReads:     defaultMaxDownloadReads,
			MaxDownloadBytes:     defaultMaxDownloadBytes,
		},
	}
}
