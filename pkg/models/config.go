package models

// DeliveryConfig describes the external messaging CLI used to push reports.
type DeliveryConfig struct {
	Command        string   `yaml:"command" mapstructure:"command"`
	DefaultArgs    []string `yaml:"default_args,omitempty" mapstructure:"default_args"`
	Target         string   `yaml:"target" mapstructure:"target"`
	TimeoutSeconds int      `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// AnalyzerConfig describes the text-generation service. The API key is never
// stored in the config file; it is read from APIKeyEnv at startup.
type AnalyzerConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	APIKeyEnv   string `yaml:"api_key_env" mapstructure:"api_key_env"`
	ProfilePath string `yaml:"profile_path,omitempty" mapstructure:"profile_path"`
}

// AlertThresholdConfig tunes the alert engine.
type AlertThresholdConfig struct {
	MaxDeliveryFailures int `yaml:"max_delivery_failures" mapstructure:"max_delivery_failures"`
	StaleDays           int `yaml:"stale_days" mapstructure:"stale_days"`
	MaxPersistFailures  int `yaml:"max_persist_failures" mapstructure:"max_persist_failures"`
}

// NotificationConfig holds optional alert-sink settings.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Slack   struct {
		WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	} `yaml:"slack" mapstructure:"slack"`
	Alerts AlertThresholdConfig `yaml:"alerts" mapstructure:"alerts"`
}

// Config holds all settings for the monitor daemon, read from
// .courtwatch.yaml via Viper. It is constructed once at process start and
// passed to each component; no component reads ambient globals.
type Config struct {
	// WatchDir is the directory the exporter syncs JSON files into.
	WatchDir string `yaml:"watch_dir" mapstructure:"watch_dir"`
	// FileExtension restricts change events to matching files.
	FileExtension string `yaml:"file_extension" mapstructure:"file_extension"`
	// DebounceSeconds is the grace period between a change event and the
	// read, letting the sync mechanism finish writing.
	DebounceSeconds int `yaml:"debounce_seconds" mapstructure:"debounce_seconds"`
	// DumpCommand is the byte-dump utility used as a read fallback when the
	// direct read is denied or returns a partial document.
	DumpCommand string `yaml:"dump_command" mapstructure:"dump_command"`

	StateFile       string `yaml:"state_file" mapstructure:"state_file"`
	ReportCachePath string `yaml:"report_cache_path" mapstructure:"report_cache_path"`

	Delivery      DeliveryConfig     `yaml:"delivery" mapstructure:"delivery"`
	Analyzer      AnalyzerConfig     `yaml:"analyzer" mapstructure:"analyzer"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
