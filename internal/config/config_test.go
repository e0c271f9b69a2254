package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MESSAGE_SOURCE", "ALERT_DELIVERY", "MONITORING_INTERVAL_SECONDS", "ESCALATION_INTERVALS_MINUTES"} {
		t.Setenv(key, "")
	}
	t.Setenv("CHATWORK_API_TOKEN", "token")
	t.Setenv("MONITORED_ROOMS", " 100, 200 ,,")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SourceChatwork, cfg.MessageSource)
	assert.Equal(t, []string{"100", "200"}, cfg.MonitoredRooms)
	assert.Equal(t, 30*time.Second, cfg.MonitoringInterval)
	assert.Equal(t, 60*time.Second, cfg.ErrorRetryInterval)
	assert.Equal(t, 60*time.Second, cfg.AlertCheckInterval)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 30*time.Minute, cfg.HighPriorityThreshold)
	assert.Equal(t, 2*time.Hour, cfg.NormalPriorityThreshold)
	assert.Equal(t, 24*time.Hour, cfg.LowPriorityThreshold)
	assert.Equal(t, []time.Duration{time.Hour, 3 * time.Hour, 6 * time.Hour}, cfg.EscalationIntervals)
	assert.Equal(t, 3, cfg.MaxEscalationLevel)
	assert.Equal(t, 48*time.Hour, cfg.AlertRetention)
	assert.Equal(t, 24*time.Hour, cfg.ProcessedRetention)
	assert.Equal(t, DeliveryLog, cfg.AlertDelivery)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONITORING_INTERVAL_SECONDS", "5")
	t.Setenv("ESCALATION_INTERVALS_MINUTES", "10, 20,20")
	t.Setenv("MAX_ESCALATION_LEVEL", "bad")
	t.Setenv("MESSAGE_SOURCE", "REDIS")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.MonitoringInterval)
	assert.Equal(t, []time.Duration{10 * time.Minute, 20 * time.Minute, 20 * time.Minute}, cfg.EscalationIntervals)
	assert.Equal(t, 3, cfg.MaxEscalationLevel)
	assert.Equal(t, SourceRedis, cfg.MessageSource)
}

func TestLoadRejectsBadEscalationIntervals(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"descending", "360,60", "must not decrease"},
		{"malformed entry", "10, x, 20", `invalid interval "x"`},
		{"only junk", "x", `invalid interval "x"`},
		{"zero", "0", `invalid interval "0"`},
		{"separators only", " , ,", "no intervals given"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CHATWORK_API_TOKEN", "token")
			t.Setenv("MONITORED_ROOMS", "100")
			t.Setenv("MESSAGE_SOURCE", "")
			t.Setenv("ALERT_DELIVERY", "")
			t.Setenv("ESCALATION_INTERVALS_MINUTES", tt.raw)

			cfg := Load()
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, "ESCALATION_INTERVALS_MINUTES")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ChatworkToken:      "token",
			MessageSource:      SourceChatwork,
			MonitoredRooms:     []string{"1"},
			AlertDelivery:      DeliveryLog,
			MonitoringInterval: time.Second,
			ErrorRetryInterval: time.Second,
			AlertCheckInterval: time.Second,
			CleanupInterval:    time.Second,
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.ChatworkToken = ""
	assert.ErrorContains(t, cfg.Validate(), "CHATWORK_API_TOKEN")

	cfg = base()
	cfg.MonitoredRooms = nil
	assert.ErrorContains(t, cfg.Validate(), "MONITORED_ROOMS")

	cfg = base()
	cfg.MessageSource = SourceRedis
	cfg.ChatworkToken = ""
	assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	cfg.RedisURL = "redis://localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.AlertDelivery = "email"
	assert.ErrorContains(t, cfg.Validate(), "ALERT_DELIVERY")

	cfg = base()
	cfg.CleanupInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.EscalationIntervals = []time.Duration{time.Hour, 10 * time.Minute}
	assert.ErrorContains(t, cfg.Validate(), "ESCALATION_INTERVALS_MINUTES")

	cfg = base()
	cfg.MaxEscalationLevel = -1
	assert.ErrorContains(t, cfg.Validate(), "MAX_ESCALATION_LEVEL")
}
