package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Global represents the user-level configuration shared by all projects.
// Durations are kept as strings ("500ms", "1h") and parsed where consumed,
// so an invalid value degrades to the built-in default instead of wedging
// every invocation.
type Global struct {
	Logging   LoggingSettings   `yaml:"logging"`
	Templates TemplateSettings  `yaml:"templates"`
	History   HistorySettings   `yaml:"history"`
	Metrics   MetricsSettings   `yaml:"metrics"`
	NATS      NATSSettings      `yaml:"nats"`
	Watch     WatchYAMLSettings `yaml:"watch"`
	Build     BuildSettings     `yaml:"build"`
}

// LoggingSettings selects log level and output format.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TemplateSettings configures the template registry.
type TemplateSettings struct {
	BaseURL string        `yaml:"base_url"`
	Retry   RetrySettings `yaml:"retry"`
}

// HistorySettings configures the build history store.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty = <workspace>/history.db
}

// MetricsSettings configures the Prometheus endpoint of the watch daemon.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port for the status server
}

// NATSSettings configures the optional build event publisher.
type NATSSettings struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// WatchYAMLSettings mirrors WatchSettings with string durations for YAML.
type WatchYAMLSettings struct {
	QuietWindow         string `yaml:"quiet_window"`
	MaxDelay            string `yaml:"max_delay"`
	FullRebuildInterval string `yaml:"full_rebuild_interval"`
	LiveReload          bool   `yaml:"livereload"`
}

// BuildSettings holds build defaults applied when the project file is silent.
type BuildSettings struct {
	Timeout string `yaml:"timeout"`
}

// RetrySettings configures retry behavior for network operations.
type RetrySettings struct {
	Mode       string `yaml:"mode"` // fixed|linear|exponential
	Initial    string `yaml:"initial"`
	Max        string `yaml:"max"`
	MaxRetries int    `yaml:"max_retries"`
}

// DefaultGlobal returns the built-in global defaults.
func DefaultGlobal() *Global {
	return &Global{
		Logging: LoggingSettings{Level: "info", Format: "text"},
		NATS:    NATSSettings{Subject: "smartlatex.builds"},
		Watch:   WatchYAMLSettings{LiveReload: true},
		Metrics: MetricsSettings{Listen: "127.0.0.1:7326"},
	}
}

// LoadGlobal reads the global configuration file over the defaults. A
// missing file is not an error.
func LoadGlobal(path string) (*Global, error) {
	g := DefaultGlobal()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("read global config: %w", err)
	}

	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parse global config %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid global config %s: %w", path, err)
	}
	return g, nil
}

// Validate checks the fields that would otherwise fail far from their
// source, i.e. duration strings parsed at use sites.
func (g *Global) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"watch.quiet_window", g.Watch.QuietWindow},
		{"watch.max_delay", g.Watch.MaxDelay},
		{"watch.full_rebuild_interval", g.Watch.FullRebuildInterval},
		{"build.timeout", g.Build.Timeout},
		{"templates.retry.initial", g.Templates.Retry.Initial},
		{"templates.retry.max", g.Templates.Retry.Max},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", field.name, field.value)
		}
	}

	if g.Metrics.Enabled && g.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen required when metrics.enabled")
	}
	if g.NATS.URL != "" && g.NATS.Subject == "" {
		return fmt.Errorf("nats.subject required when nats.url is set")
	}
	return nil
}
