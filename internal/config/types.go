package config

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".mugo.yml"

// EnvPrefix prefixes every environment override, e.g. MUGO_ADMIN_PASS.
const EnvPrefix = "MUGO_"

// Config is the top-level mugo configuration, corresponding to .mugo.yml.
type Config struct {
	RestaurantName string `yaml:"restaurant_name" koanf:"restaurant_name"`

	// Server
	Port            int      `yaml:"port" koanf:"port"`
	SiteDir         string   `yaml:"site_dir" koanf:"site_dir"`
	MenuFile        string   `yaml:"menu_file" koanf:"menu_file"`
	DataDir         string   `yaml:"data_dir" koanf:"data_dir"`
	AdminUser       string   `yaml:"admin_user" koanf:"admin_user"`
	AdminPass       string   `yaml:"admin_pass" koanf:"admin_pass"`
	Realm           string   `yaml:"realm" koanf:"realm"`
	AllowAllOrigins bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	StaticDeny      []string `yaml:"static_deny,omitempty" koanf:"static_deny"`
	Watch           bool     `yaml:"watch" koanf:"watch"`

	// Rendering
	Currency             string `yaml:"currency" koanf:"currency"`
	MarkdownDescriptions bool   `yaml:"markdown_descriptions" koanf:"markdown_descriptions"`

	// Editor
	ServerURL   string `yaml:"server_url" koanf:"server_url"`
	DownloadDir string `yaml:"download_dir" koanf:"download_dir"`
	BuildDir    string `yaml:"build_dir" koanf:"build_dir"`

	Remote   RemoteConfig  `yaml:"remote" koanf:"remote"`
	Webhooks WebhookConfig `yaml:"webhooks" koanf:"webhooks"`
	Log      LogConfig     `yaml:"log" koanf:"log"`
}

// RemoteConfig locates menu.json in a hosted source repository.
type RemoteConfig struct {
	APIURL string `yaml:"api_url" koanf:"api_url"`
	Owner  string `yaml:"owner" koanf:"owner"`
	Repo   string `yaml:"repo" koanf:"repo"`
	Branch string `yaml:"branch" koanf:"branch"`
	Path   string `yaml:"path" koanf:"path"`
	// Token is read from MUGO_REMOTE_TOKEN and never written to the config file.
	Token string `yaml:"-" koanf:"token"`
}

// Enabled reports whether a remote repository is configured.
func (r RemoteConfig) Enabled() bool {
	return r.Owner != "" && r.Repo != ""
}

// WebhookConfig lists endpoints notified after every menu change.
type WebhookConfig struct {
	URLs []string `yaml:"urls,omitempty" koanf:"urls"`
	// Secret signs each payload. Read from MUGO_WEBHOOKS_SECRET only.
	Secret string `yaml:"-" koanf:"secret"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Verbose bool `yaml:"verbose" koanf:"verbose"`
	Console bool `yaml:"console" koanf:"console"`
}
