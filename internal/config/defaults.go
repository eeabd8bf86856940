package config

const (
	defaultDataDir           = "~/.local/share/herald"
	defaultLogDir            = "~/.local/share/herald/logs"
	defaultAPIBind           = "127.0.0.1:7519"
	defaultRedisAddr         = "127.0.0.1:6379"
	defaultStream            = "herald:events"
	defaultStreamMaxLen      = 100_000
	defaultGroup             = "herald"
	defaultBlockSeconds      = 5
	defaultReadCount         = 16
	defaultErrorRetrySeconds = 2
	defaultPushTimeout       = 10
	defaultPushMinLevel      = "operational"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Transport: Transport{
			Addr:   defaultRedisAddr,
			Stream: defaultStream,
			MaxLen: defaultStreamMaxLen,
		},
		Processor: Processor{
			Group:             defaultGroup,
			BlockSeconds:      defaultBlockSeconds,
			ReadCount:         defaultReadCount,
			ErrorRetrySeconds: defaultErrorRetrySeconds,
		},
		Push: Push{
			RequestTimeout: defaultPushTimeout,
			MinLevel:       defaultPushMinLevel,
			CreatedOnly:    false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
