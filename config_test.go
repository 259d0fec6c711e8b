package eventuate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_AppliesDefaultsAndRequiredFields(t *testing.T) {
	t.Setenv("EVENTUATE_DB_DSN", "user:pass@tcp(localhost)/eventuate")
	t.Setenv("EVENTUATE_SUBSCRIBER_ID", "order-service")

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, "eventuate", cfg.SchemaName)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, ShutdownWaitForCompletion, cfg.ShutdownPolicyValue())
}

func TestLoadConfig_MissingRequiredFieldFails(t *testing.T) {
	t.Setenv("EVENTUATE_SUBSCRIBER_ID", "order-service")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate_RejectsUnknownDriver(t *testing.T) {
	cfg := Config{
		DatabaseDriver: "oracle",
		DatabaseDSN:    "dsn",
		SubscriberID:   "sub",
		ShutdownPolicy: "wait-for-completion",
		PollInterval:   time.Second,
	}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_RejectsUnknownShutdownPolicy(t *testing.T) {
	cfg := Config{
		DatabaseDriver: "mysql",
		DatabaseDSN:    "dsn",
		SubscriberID:   "sub",
		ShutdownPolicy: "panic-immediately",
		PollInterval:   time.Second,
	}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_ShutdownPolicyValue_CancelCurrent(t *testing.T) {
	cfg := Config{ShutdownPolicy: "cancel-current"}
	assert.Equal(t, ShutdownCancelCurrent, cfg.ShutdownPolicyValue())
}
