package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/config"
	"tracker/internal/log"
)

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("chatty", &buf)
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	assert.Contains(t, out, "Falling back to info log level")
	assert.Contains(t, out, "shown")
	assert.NotContains(t, out, "hidden")
}

func TestOpenApp(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		seed    bool
		tasks   int
	}{
		{"memory with example data", config.BackendMemory, true, 5},
		{"memory without example data", config.BackendMemory, false, 0},
		{"file", config.BackendFile, true, 5},
		{"sqlite", config.BackendSQLite, true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				DataBackend:     tt.backend,
				DataDir:         dir,
				SQLiteDBPath:    filepath.Join(dir, "tracker.db"),
				SeedExampleData: tt.seed,
				Timezone:        "UTC",
				LogLevel:        "info",
			}
			a, err := OpenApp(context.Background(), cfg, log.Discard())
			require.NoError(t, err)
			require.NoError(t, a.Load(context.Background()))
			assert.Len(t, a.Tasks.List(), tt.tasks)
			require.NoError(t, a.Close())
		})
	}
}

func TestOpenAppRejectsBadTimezone(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendMemory, Timezone: "Mars/Olympus"}
	_, err := OpenApp(context.Background(), cfg, log.Discard())
	assert.Error(t, err)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitNotFound, GetExitCode(notFound("task", 3)))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", assert.AnError)))
	assert.Equal(t, "boom: "+assert.AnError.Error(), WrapExitError(ExitCommandError, "boom", assert.AnError).Error())
}
