package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Settings are the ambient, environment-provided knobs that are not part of a workflow run itself.
type Settings struct {
	Env                 string `envconfig:"ENV" default:"dev"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsEndpoint     string `envconfig:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	MetricsStdout       bool   `envconfig:"METRICS_STDOUT" default:"false"`
	DiscordAlertWebhook string `envconfig:"DISCORD_ALERT_WEBHOOK"`
	DiscordTestWebhook  string `envconfig:"DISCORD_TEST_WEBHOOK"`
	RunTable            string `envconfig:"RUN_TABLE"`
	DbAwsEndpoint       string `envconfig:"DB_AWS_ENDPOINT"`
}

func LoadSettings() (*Settings, error) {
	settings := new(Settings)
	if err := envconfig.Process("", settings); err != nil {
		return nil, err
	}
	return settings, nil
}
