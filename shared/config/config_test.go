package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServicePort(t *testing.T) {
	assert.Equal(t, "8001", ServicePort("http://localhost:8001", "9999"))
	assert.Equal(t, "8003", ServicePort("http://core:8003/", "9999"))
	assert.Equal(t, "9999", ServicePort("http://localhost", "9999"))
	assert.Equal(t, "9999", ServicePort("", "9999"))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90m")
	assert.Equal(t, 90*time.Minute, getEnvAsDuration("TEST_DURATION", time.Hour))

	t.Setenv("TEST_DURATION", "3600")
	assert.Equal(t, time.Hour, getEnvAsDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))

	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvAsBool("TEST_BOOL", false))

	assert.Equal(t, "fallback", getEnv("TEST_UNSET_VALUE", "fallback"))
}
