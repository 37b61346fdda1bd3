// Package config loads the odinmcp settings from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the core reads.
const EnvPrefix = "ODINMCP"

// Settings holds every knob the core consumes. All values come from the
// environment with the ODINMCP_ prefix, e.g. ODINMCP_BROKER_URL.
type Settings struct {
	// Debug toggles verbose logging.
	Debug bool `mapstructure:"debug"`

	// UserInfoHeader names the trusted header carrying base64 JSON user info.
	UserInfoHeader string `mapstructure:"user_info_token"`

	// HermodStreamingHeader names the header the push proxy injects on
	// requests it forwards.
	HermodStreamingHeader string `mapstructure:"hermod_streaming_header"`

	// HermodStreamingTokenSecret is the HMAC key channel tokens are signed with.
	HermodStreamingTokenSecret string `mapstructure:"hermod_streaming_token_secret"`

	// HermodPublishURLs lists the pub/sub endpoints the push proxy subscribes to.
	HermodPublishURLs []string `mapstructure:"hermod_publish_urls"`

	// HermodKeepAliveTimeout is the keep-alive interval, in seconds,
	// advertised in streaming hold responses.
	HermodKeepAliveTimeout int `mapstructure:"hermod_streaming_keep_alive_timeout"`

	// BrokerURL is the task broker address.
	BrokerURL string `mapstructure:"broker_url"`

	// BackendURL is the result backend address.
	BackendURL string `mapstructure:"backend_url"`

	// WorkerQueue names the queue worker tasks travel on.
	WorkerQueue string `mapstructure:"worker_queue"`

	// ResultTTL bounds how long task results stay in the backend.
	ResultTTL time.Duration `mapstructure:"result_ttl"`
}

// New returns settings populated with defaults, before environment overrides.
func New() *Settings {
	return &Settings{
		UserInfoHeader:             "x-userinfo",
		HermodStreamingHeader:      "x-hermod-stream",
		HermodStreamingTokenSecret: "secret",
		HermodPublishURLs:          []string{"redis://localhost:6379/0"},
		HermodKeepAliveTimeout:     10,
		BrokerURL:                  "redis://localhost:6379/0",
		BackendURL:                 "redis://localhost:6379/0",
		WorkerQueue:                "odinmcp",
		ResultTTL:                  24 * time.Hour,
	}
}

// Load reads settings from the environment on top of the defaults.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	settings := New()
	for _, key := range []string{
		"debug",
		"user_info_token",
		"hermod_streaming_header",
		"hermod_streaming_token_secret",
		"hermod_publish_urls",
		"hermod_streaming_keep_alive_timeout",
		"broker_url",
		"backend_url",
		"worker_queue",
		"result_ttl",
	} {
		// AutomaticEnv alone does not surface keys to Unmarshal; bind each.
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}
	if urls := v.GetString("hermod_publish_urls"); urls != "" {
		settings.HermodPublishURLs = splitList(urls)
	}
	return settings, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
