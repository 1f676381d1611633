package core

import (
	"fmt"
	"path/filepath"

	"github.com/dbin-w/courtwatch/pkg/models"
	"github.com/spf13/viper"
)

// ConfigurationManager loads the daemon configuration from .courtwatch.yaml
// in the base path. The loaded Config is the single source of settings;
// components receive it explicitly rather than reading ambient globals.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultConfig returns a Config populated with sensible defaults relative
// to the base path.
func defaultConfig(basePath string) *models.Config {
	cfg := &models.Config{
		WatchDir:        filepath.Join(basePath, "exports"),
		FileExtension:   ".json",
		DebounceSeconds: 2,
		DumpCommand:     "cat",
		StateFile:       filepath.Join(basePath, "tennis_health_analyzer_state.json"),
		ReportCachePath: filepath.Join(basePath, "context", "latest_match.json"),
		Delivery: models.DeliveryConfig{
			Command:        "openclaw",
			TimeoutSeconds: 60,
		},
		Analyzer: models.AnalyzerConfig{
			BaseURL:   "https://api.deepseek.com",
			Model:     "deepseek-reasoner",
			APIKeyEnv: "DEEPSEEK_API_KEY",
		},
	}
	cfg.Notifications.Alerts = models.AlertThresholdConfig{
		MaxDeliveryFailures: 3,
		StaleDays:           7,
		MaxPersistFailures:  1,
	}
	return cfg
}

// LoadConfig reads .courtwatch.yaml from the base path. A missing file
// yields the defaults; a malformed file is an error so a typo does not
// silently watch the wrong directory.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := defaultConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(".courtwatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("watch_dir", cfg.WatchDir)
	v.SetDefault("file_extension", cfg.FileExtension)
	v.SetDefault("debounce_seconds", cfg.DebounceSeconds)
	v.SetDefault("dump_command", cfg.DumpCommand)
	v.SetDefault("state_file", cfg.StateFile)
	v.SetDefault("report_cache_path", cfg.ReportCachePath)
	v.SetDefault("delivery.command", cfg.Delivery.Command)
	v.SetDefault("delivery.target", cfg.Delivery.Target)
	v.SetDefault("delivery.timeout_seconds", cfg.Delivery.TimeoutSeconds)
	v.SetDefault("analyzer.base_url", cfg.Analyzer.BaseURL)
	v.SetDefault("analyzer.model", cfg.Analyzer.Model)
	v.SetDefault("analyzer.api_key_env", cfg.Analyzer.APIKeyEnv)
	v.SetDefault("analyzer.profile_path", cfg.Analyzer.ProfilePath)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.alerts.max_delivery_failures", cfg.Notifications.Alerts.MaxDeliveryFailures)
	v.SetDefault("notifications.alerts.stale_days", cfg.Notifications.Alerts.StaleDays)
	v.SetDefault("notifications.alerts.max_persist_failures", cfg.Notifications.Alerts.MaxPersistFailures)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .courtwatch.yaml: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling .courtwatch.yaml: %w", err)
	}
	return cfg, nil
}
