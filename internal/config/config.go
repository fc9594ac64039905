// Package config loads codingbuddy settings with viper.
//
// Sources, later wins: built-in defaults, a codingbuddy.config.{yaml,yml,json,toml}
// file in the working directory or project root, then CODINGBUDDY_* env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

const (
	// ConfigName is the base name of the optional config file.
	ConfigName = "codingbuddy.config"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CODINGBUDDY"

	KeyLanguage       = "language"
	KeyProjectRoot    = "project_root"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyFileTimeout    = "session.file_timeout"
	KeyJournalDir     = "journal.dir"
	KeyJournalEnabled = "journal.enabled"
)

var configExts = []string{"yaml", "yml", "json", "toml"}

// Provider exposes configuration values. It satisfies session.ConfigProvider.
type Provider struct {
	v    *viper.Viper
	root string
}

var _ session.ConfigProvider = (*Provider)(nil)

// Load builds a Provider starting the project-root search at cwd.
// configFile, when non-empty, is read instead of searching for one.
func Load(cwd, configFile string) (*Provider, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root := FindProjectRoot(cwd)
	if explicit := strings.TrimSpace(v.GetString(KeyProjectRoot)); explicit != "" {
		root = explicit
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(cwd)
		if root != cwd {
			v.AddConfigPath(root)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// A project_root in the file applies unless the env already set one.
	if fromFile := strings.TrimSpace(v.GetString(KeyProjectRoot)); fromFile != "" {
		root = fromFile
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return &Provider{v: v, root: root}, nil
}

// New loads configuration for the current working directory.
func New() (*Provider, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return Load(cwd, "")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLanguage, string(session.LangEnglish))
	v.SetDefault(KeyProjectRoot, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyFileTimeout, session.DefaultFileTimeout)

	home, _ := os.UserHomeDir()
	v.SetDefault(KeyJournalDir, filepath.Join(home, ".codingbuddy"))
	v.SetDefault(KeyJournalEnabled, true)
}

// Language returns the configured language code. It is read on every call.
func (p *Provider) Language() string {
	return string(session.ParseLanguage(p.v.GetString(KeyLanguage)))
}

// SetLanguage overrides the language for the running process.
func (p *Provider) SetLanguage(lang string) {
	p.v.Set(KeyLanguage, lang)
}

// SetProjectRoot overrides the project root for the running process.
func (p *Provider) SetProjectRoot(root string) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	p.root = root
}

// ProjectRoot returns the absolute project root.
func (p *Provider) ProjectRoot() string {
	return p.root
}

func (p *Provider) LogLevel() string {
	return strings.ToLower(p.v.GetString(KeyLogLevel))
}

func (p *Provider) LogFormat() string {
	return strings.ToLower(p.v.GetString(KeyLogFormat))
}

// FileTimeout bounds each session file operation. Non-positive or
// unparseable values fall back to the default.
func (p *Provider) FileTimeout() time.Duration {
	d := p.v.GetDuration(KeyFileTimeout)
	if d <= 0 {
		return session.DefaultFileTimeout
	}
	return d
}

func (p *Provider) JournalDir() string {
	return p.v.GetString(KeyJournalDir)
}

func (p *Provider) JournalEnabled() bool {
	return p.v.GetBool(KeyJournalEnabled)
}

// ConfigFileUsed reports the config file that was read, if any.
func (p *Provider) ConfigFileUsed() string {
	return p.v.ConfigFileUsed()
}

// FindProjectRoot walks up from start looking for docs/codingbuddy or a
// codingbuddy config file. It returns start when neither is found.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for {
		if isProjectRoot(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func isProjectRoot(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, "docs", "codingbuddy")); err == nil && info.IsDir() {
		return true
	}
	for _, ext := range configExts {
		if _, err := os.Stat(filepath.Join(dir, ConfigName+"."+ext)); err == nil {
			return true
		}
	}
	return false
}
