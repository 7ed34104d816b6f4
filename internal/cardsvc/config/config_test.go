package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so defaults apply
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "ADMIN_IDS", "PORT", "STORE_DRIVER", "POSTGRES_URL", "SQLITE_PATH",
		"MONGODB_URI", "NATS_URL", "NATS_TOKEN", "TEMPLATE_PATH", "FONT_PATH", "WORK_DIR",
		"CARD_ID_WIDTH", "ISSUANCE_TIMEOUT", "RATE_LIMIT", "JWT_SECRET_KEY", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", " 100, 200 ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{100, 200}, cfg.AdminIDs)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "template.png", cfg.TemplatePath)
	assert.Equal(t, 9, cfg.IdentifierWidth)
	assert.Equal(t, 30*time.Second, cfg.IssuanceTimeout)
	assert.Equal(t, 60, cfg.RateLimit)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"TELEGRAM_BOT_TOKEN": ""}},
		{"bad admin id", map[string]string{"ADMIN_IDS": "12,abc"}},
		{"bad width", map[string]string{"CARD_ID_WIDTH": "0"}},
		{"bad timeout", map[string]string{"ISSUANCE_TIMEOUT": "soon"}},
		{"bad rate limit", map[string]string{"RATE_LIMIT": "many"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "redis"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
