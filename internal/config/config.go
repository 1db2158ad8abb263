package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GitHubConfig holds the sync target: a file pair inside one repository.
type GitHubConfig struct {
	// Owner is the repository owner (user or org).
	Owner string `yaml:"owner" json:"owner"`
	// Repo is the repository name.
	Repo string `yaml:"repo" json:"repo"`
	// Branch is the target branch for both files.
	Branch string `yaml:"branch" json:"branch"`
	// JSONPath is the in-repo path of the JSON event list.
	JSONPath string `yaml:"json_path" json:"jsonPath"`
	// XLSXPath is the in-repo path of the spreadsheet event list.
	XLSXPath string `yaml:"xlsx_path" json:"xlsxPath"`
	// Token is a personal access token with contents write permission.
	Token string `yaml:"token" json:"token"`
}

// SourceConfig holds the event source endpoints. The xlsx URL is the
// primary source; the JSON URL is the fallback.
type SourceConfig struct {
	XLSXURL string `yaml:"xlsx_url" json:"xlsxUrl"`
	JSONURL string `yaml:"json_url" json:"jsonUrl"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration. It is loaded once
// at startup and written back (write-through) on every settings edit.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// LMP is the last-menstrual-period reference date ("YYYY-MM-DD")
	// from which gestational progress is computed.
	LMP string `yaml:"lmp" json:"lmp"`

	// RefreshCron is a cron-style schedule (e.g. "0 6 * * *") for
	// reloading events from the source. Empty disables scheduled
	// refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Source holds the event source endpoints.
	Source SourceConfig `yaml:"source" json:"source"`

	// GitHub holds the remote sync target and credential.
	GitHub GitHubConfig `yaml:"github" json:"github"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basicAuth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		LMP:    "",
		GitHub: GitHubConfig{Branch: "main"},
	}
}

// Normalize fills missing values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = "main"
	}
}

// Load loads configuration from the given YAML path. If the file does
// not exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".mamacal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save, which keeps handler code
// short:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
