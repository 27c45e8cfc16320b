package config

// Config is the top-level configuration
type Config struct {
	Server      ServerConfig  `json:"server"`
	Client      ClientConfig  `json:"client"`
	Storage     StorageConfig `json:"storage"`
	Poll        PollConfig    `json:"poll"`
	Discord     DiscordConfig `json:"discord"`
	Suggest     SuggestConfig `json:"suggest"`
	CronPresets []CronPreset  `json:"cronPresets"`
	LogLevel    string        `json:"logLevel"` // debug, info, warn, error
}

// ServerConfig is where "autopost serve" listens.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ClientConfig is how CLI commands reach a running server.
type ClientConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type StorageConfig struct {
	ProfilesPath string `json:"profilesPath"`
	UploadDir    string `json:"uploadDir"`
	HistoryDir   string `json:"historyDir"`
	HistoryLimit int    `json:"historyLimit"` // entries kept per profile
}

type PollConfig struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

// DiscordConfig bounds sends per target channel.
type DiscordConfig struct {
	RatePerSecond float64 `json:"ratePerSecond"`
	Burst         int     `json:"burst"`
}

type SuggestConfig struct {
	Provider string `json:"provider"` // empty: resolved from model
	APIKey   string `json:"apiKey"`
	BaseURL  string `json:"baseUrl"`
	Model    string `json:"model"`
}

// CronPreset is one entry of the simple cron schedule picker.
type CronPreset struct {
	Label      string `json:"label"`
	Expression string `json:"expression"`
}

// DefaultCronPresets are offered when the config file lists none.
var DefaultCronPresets = []CronPreset{
	{Label: "Every minute", Expression: "* * * * *"},
	{Label: "Every hour", Expression: "0 * * * *"},
	{Label: "Every day at midnight", Expression: "0 0 * * *"},
	{Label: "Every day at 09:00", Expression: "0 9 * * *"},
	{Label: "Weekdays at 09:00", Expression: "0 9 * * 1-5"},
	{Label: "Every Monday at 09:00", Expression: "0 9 * * 1"},
	{Label: "First day of the month", Expression: "0 0 1 * *"},
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Client: ClientConfig{
			BaseURL:        "http://127.0.0.1:8080",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			ProfilesPath: "~/.autopost/profiles.json",
			UploadDir:    "~/.autopost/uploads",
			HistoryDir:   "~/.autopost/history",
			HistoryLimit: 200,
		},
		Poll:     PollConfig{IntervalSeconds: 5},
		Discord:  DiscordConfig{RatePerSecond: 1, Burst: 5},
		LogLevel: "info",
	}
}
