// Package settings manages persistent user settings for the lsdnctl CLI.
package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is the default configuration directory used when no
// override is configured.
const DefaultConfigDir = "/etc/lsdn"

// Settings holds persistent user preferences.
type Settings struct {
	// DefaultContext is the context to use when -c is not specified.
	DefaultContext string `yaml:"default_context,omitempty"`

	// DefaultNettype is the nettype used by commands that create a Settings
	// object without an explicit --nettype flag.
	DefaultNettype string `yaml:"default_nettype,omitempty"`

	// ConfigDir overrides the default configuration directory.
	ConfigDir string `yaml:"config_dir,omitempty"`

	// AuditLogPath overrides the default audit log path.
	AuditLogPath string `yaml:"audit_log_path,omitempty"`

	// AuditMaxSizeMB is the max audit log size in MB before rotation (default: 10).
	AuditMaxSizeMB int `yaml:"audit_max_size_mb,omitempty"`

	// AuditMaxBackups is the max number of rotated audit log files (default: 10).
	AuditMaxBackups int `yaml:"audit_max_backups,omitempty"`
}

const (
	// DefaultAuditMaxSizeMB is the default maximum audit log size in megabytes.
	DefaultAuditMaxSizeMB = 10

	// DefaultAuditMaxBackups is the default maximum number of rotated audit log files.
	DefaultAuditMaxBackups = 10
)

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/lsdn_settings.yaml"
	}
	return filepath.Join(home, ".lsdn", "settings.yaml")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigDir returns the configuration directory (with fallback).
func (s *Settings) GetConfigDir() string {
	if s.ConfigDir != "" {
		return s.ConfigDir
	}
	return DefaultConfigDir
}

// GetAuditLogPath returns the audit log path with a fallback default.
// The default depends on configDir: if non-empty, uses configDir/audit.log;
// otherwise uses /var/log/lsdn/audit.log.
func (s *Settings) GetAuditLogPath(configDir string) string {
	if s.AuditLogPath != "" {
		return s.AuditLogPath
	}
	if configDir != "" {
		return configDir + "/audit.log"
	}
	return "/var/log/lsdn/audit.log"
}

// GetAuditMaxSizeMB returns the audit max size in MB with a default of 10.
func (s *Settings) GetAuditMaxSizeMB() int {
	if s.AuditMaxSizeMB > 0 {
		return s.AuditMaxSizeMB
	}
	return DefaultAuditMaxSizeMB
}

// GetAuditMaxBackups returns the audit max backups with a default of 10.
func (s *Settings) GetAuditMaxBackups() int {
	if s.AuditMaxBackups > 0 {
		return s.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
