package testlog

import (
	"testing"

	"github.com/danmuck/vlink/internal/logging"
	"github.com/rs/zerolog/log"
)

// Start configures test-profile logging and announces the running test.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("test start")
}
