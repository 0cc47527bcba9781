package config

// Credentials used when neither the config file nor the environment set them.
const (
	DefaultAdminUser = "admin"
	DefaultAdminPass = "mugo1234kf"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RestaurantName: "MUGO",
		Port:           3000,
		SiteDir:        ".",
		MenuFile:       "menu.json",
		DataDir:        ".mugo",
		AdminUser:      DefaultAdminUser,
		AdminPass:      DefaultAdminPass,
		Realm:          "MUGO Admin",
		Watch:          true,
		ServerURL:      "http://localhost:3000",
		DownloadDir:    ".",
		BuildDir:       "dist",
		Remote: RemoteConfig{
			APIURL: "https://api.github.com",
			Branch: "main",
			Path:   "menu.json",
		},
		Log: LogConfig{Console: true},
	}
}
