package eventuate

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds the environment-driven settings for an eventuate deployment:
// the database the outbox/inbox tables live in, and the broker consumer
// tuning knobs. It is loaded with caarlos0/env struct tags.
type Config struct {
	DatabaseDriver string `env:"EVENTUATE_DB_DRIVER" envDefault:"mysql"`
	DatabaseDSN    string `env:"EVENTUATE_DB_DSN,required"`
	SchemaName     string `env:"EVENTUATE_SCHEMA" envDefault:"eventuate"`

	SubscriberID string        `env:"EVENTUATE_SUBSCRIBER_ID,required"`
	PollInterval time.Duration `env:"EVENTUATE_POLL_INTERVAL" envDefault:"1s"`

	ShutdownPolicy    string        `env:"EVENTUATE_SHUTDOWN_POLICY" envDefault:"wait-for-completion"`
	ShutdownTimeout   time.Duration `env:"EVENTUATE_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	RelayBatchSize     int           `env:"EVENTUATE_RELAY_BATCH_SIZE" envDefault:"100"`
	RelayPollInterval  time.Duration `env:"EVENTUATE_RELAY_POLL_INTERVAL" envDefault:"500ms"`
}

// Validate checks the invariants LoadConfig cannot express via struct
// tags alone: driver must be one of the drivers this module actually
// wires, and the shutdown policy must name a real ShutdownPolicy.
func (c Config) Validate() error {
	return validation.Errors{
		"databaseDriver": validation.Validate(c.DatabaseDriver, validation.Required, validation.In("mysql", "postgres", "sqlite3")),
		"databaseDsn":    validation.Validate(c.DatabaseDSN, validation.Required),
		"subscriberId":   validation.Validate(c.SubscriberID, validation.Required),
		"shutdownPolicy": validation.Validate(c.ShutdownPolicy, validation.Required, validation.In("wait-for-completion", "cancel-current")),
		"pollInterval":   validation.Validate(c.PollInterval, validation.Min(time.Millisecond)),
	}.Filter()
}

// ShutdownPolicyValue resolves the configured policy name to a
// ShutdownPolicy constant.
func (c Config) ShutdownPolicyValue() ShutdownPolicy {
	if c.ShutdownPolicy == "cancel-current" {
		return ShutdownCancelCurrent
	}
	return ShutdownWaitForCompletion
}

// LoadConfig reads Config from the process environment using struct tags,
// then validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to parse environment configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeConfiguration, "invalid configuration", err)
	}
	return cfg, nil
}
