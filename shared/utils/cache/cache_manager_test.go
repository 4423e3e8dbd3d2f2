package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "ratelimit:count:login:10.0.0.1", CounterKey("login:10.0.0.1"))
	assert.Equal(t, "ratelimit:block:login:10.0.0.1", BlockKey("login:10.0.0.1"))
}
