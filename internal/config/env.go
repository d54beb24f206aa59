package config

import "os"

// Environment variables overriding the global configuration. Flags beat env,
// env beats file, file beats defaults.
const (
	EnvLogLevel        = "SMARTLATEX_LOG_LEVEL"
	EnvLogFormat       = "SMARTLATEX_LOG_FORMAT"
	EnvTemplateBaseURL = "SMARTLATEX_TEMPLATE_BASE_URL"
	EnvHistoryPath     = "SMARTLATEX_HISTORY_PATH"
	EnvMetricsListen   = "SMARTLATEX_METRICS_LISTEN"
	EnvNATSURL         = "SMARTLATEX_NATS_URL"
	EnvNATSSubject     = "SMARTLATEX_NATS_SUBJECT"
)

// ApplyEnvOverrides overlays recognized SMARTLATEX_* variables onto g.
func ApplyEnvOverrides(g *Global) {
	setIfPresent(EnvLogLevel, &g.Logging.Level)
	setIfPresent(EnvLogFormat, &g.Logging.Format)
	setIfPresent(EnvTemplateBaseURL, &g.Templates.BaseURL)
	setIfPresent(EnvHistoryPath, &g.History.Path)
	setIfPresent(EnvMetricsListen, &g.Metrics.Listen)
	setIfPresent(EnvNATSURL, &g.NATS.URL)
	setIfPresent(EnvNATSSubject, &g.NATS.Subject)
}

func setIfPresent(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
