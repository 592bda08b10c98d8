// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/scriptlens/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer for direct capture.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)

// resetGlobalLogger is critical for ensuring test isolation, as the logger
// is a global singleton. We must reset it before each test.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		resetGlobalLogger()
		var buf syncBuffer

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "lens-test",
			Colors:      config.ColorConfig{Info: "green"},
		}
		Initialize(cfg, &buf)
		GetLogger().Info("analysis started")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "analysis started")
		assert.Contains(t, output, colorGreen, "info level should be colorized green")
		assert.Contains(t, output, colorReset)
	})

	t.Run("json format produces structured entries", func(t *testing.T) {
		resetGlobalLogger()
		var buf syncBuffer

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "lens-json",
		}
		Initialize(cfg, &buf)
		GetLogger().Warn("parse degraded", zap.String("script", "app.js"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "lens-json", entry["logger"])
		assert.Equal(t, "parse degraded", entry["msg"])
		assert.Equal(t, "app.js", entry["script"])
	})

	t.Run("writes to a log file if configured", func(t *testing.T) {
		resetGlobalLogger()
		tmpFile, err := os.CreateTemp(t.TempDir(), "lens-*.log")
		require.NoError(t, err)
		require.NoError(t, tmpFile.Close())

		cfg := config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: tmpFile.Name(),
			MaxSize: 1, // 1 MB
		}
		var buf syncBuffer
		Initialize(cfg, &buf)
		GetLogger().Error("this should go to the file")
		Sync()

		content, err := os.ReadFile(tmpFile.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "this should go to the file")
	})

	t.Run("initializes exactly once", func(t *testing.T) {
		resetGlobalLogger()
		var buf syncBuffer

		Initialize(config.LoggerConfig{Level: "info", ServiceName: "first"}, &buf)
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, &buf)
		second := GetLogger()

		assert.Equal(t, first, second)
		second.Info("probe")

		assert.True(t, strings.Contains(buf.String(), "first"))
		assert.False(t, strings.Contains(buf.String(), "second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("returns a fallback logger before initialization", func(t *testing.T) {
		resetGlobalLogger()
		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("returns the stored global logger after initialization", func(t *testing.T) {
		resetGlobalLogger()
		var buf syncBuffer
		Initialize(config.LoggerConfig{Level: "info", ServiceName: "global-test"}, &buf)

		assert.Equal(t, globalLogger.Load(), GetLogger())
	})
}
