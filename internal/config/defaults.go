package config

const (
	defaultConfigPath           = "~/.config/muzzman/config.toml"
	defaultStateDir             = "~/.local/share/muzzman"
	defaultModulesDir           = "~/.local/share/muzzman/modules"
	defaultLogDir               = "~/.local/share/muzzman/logs"
	defaultLocationName         = "Default"
	defaultLocationPath         = "~/Downloads/muzzman"
	defaultAutoloadModules      = true
	defaultConnectTimeoutMillis = 2000
	defaultCallTimeoutMillis    = 5000
	defaultPollIntervalMillis   = 100
	defaultNotifyTimeoutSeconds = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	// SocketEnv overrides paths.socket when set.
	SocketEnv = "MUZZMAN_SOCKET"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			ModulesDir: defaultModulesDir,
			LogDir:     defaultLogDir,
		},
		Daemon: Daemon{
			DefaultLocationName: defaultLocationName,
			DefaultLocationPath: defaultLocationPath,
			AutoloadModules:     defaultAutoloadModules,
		},
		Client: Client{
			ConnectTimeoutMillis: defaultConnectTimeoutMillis,
			CallTimeoutMillis:    defaultCallTimeoutMillis,
			PollIntervalMillis:   defaultPollIntervalMillis,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
			NotifyCompleted:       true,
			NotifyFailed:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
