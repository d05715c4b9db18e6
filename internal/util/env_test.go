package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FOLIO_TEST_STR", "value")
	t.Setenv("FOLIO_TEST_INT", "25")
	t.Setenv("FOLIO_TEST_BAD_INT", "x")
	t.Setenv("FOLIO_TEST_DUR", "750ms")

	assert.Equal(t, "value", EnvOrDefault("FOLIO_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", EnvOrDefault("FOLIO_TEST_UNSET", "fallback"))
	assert.Equal(t, 25, EnvIntOrDefault("FOLIO_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntOrDefault("FOLIO_TEST_BAD_INT", 1))
	assert.Equal(t, 750*time.Millisecond, EnvDurationOrDefault("FOLIO_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationOrDefault("FOLIO_TEST_UNSET", time.Second))
}
