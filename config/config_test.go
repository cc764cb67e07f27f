package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("AI_REQUESTS_PER_MINUTE", "")
	t.Setenv("CRON_ENABLED", "")
	t.Setenv("GEMINI_TEMPERATURE", "")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 8080, env.PORT)
	assert.Equal(t, "gemini-1.5-flash", env.GEMINI_MODEL)
	assert.Equal(t, 60, env.AI_REQUESTS_PER_MINUTE)
	assert.True(t, env.CRON_ENABLED)
	assert.False(t, env.IsProduction())
	assert.False(t, env.SpacesEnabled())
	assert.Nil(t, env.GEMINI_TEMPERATURE)
}

func TestGetRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("GO_ENV", "staging-ish")

	_, err := Get()
	assert.Error(t, err)
}

func TestGetReadsOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("SPACES_BUCKET", "papers")
	t.Setenv("SPACES_REGION", "blr1")
	t.Setenv("SPACES_ACCESS_KEY", "key")
	t.Setenv("SPACES_SECRET_KEY", "secret")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 9090, env.PORT)
	assert.False(t, env.CRON_ENABLED)
	assert.True(t, env.IsProduction())
	assert.True(t, env.SpacesEnabled())
}

func TestGetTemperature(t *testing.T) {
	t.Setenv("GO_ENV", "")
	t.Setenv("GEMINI_TEMPERATURE", "0")

	env, err := Get()
	require.NoError(t, err)
	require.NotNil(t, env.GEMINI_TEMPERATURE)
	assert.Equal(t, float32(0), *env.GEMINI_TEMPERATURE)

	t.Setenv("GEMINI_TEMPERATURE", "warm")
	_, err = Get()
	assert.Error(t, err)

	t.Setenv("GEMINI_TEMPERATURE", "3.5")
	_, err = Get()
	assert.Error(t, err)
}
