package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func useTempLog(t *testing.T) string {
	t.Helper()
	ResetLogger()
	logPath := filepath.Join(t.TempDir(), "salesreport.log")
	SetLogPath(logPath)
	t.Cleanup(func() {
		ResetLogger()
		SetLevel(zapcore.InfoLevel)
	})
	return logPath
}

// TestInitLogger ensures that the logger initializes properly.
func TestInitLogger(t *testing.T) {
	logPath := useTempLog(t)

	InitLogger()
	require.NotNil(t, log)

	log.Info("Test log message")

	_, err := os.Stat(logPath)
	assert.NoError(t, err, "log file was not created")
}

// TestGetLogger ensures that GetLogger returns a usable instance.
func TestGetLogger(t *testing.T) {
	logPath := useTempLog(t)

	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger())

	l.Info("Logger retrieved successfully")
	Sync()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("Logger retrieved successfully")))
}

func TestSetLevelFiltersMessages(t *testing.T) {
	logPath := useTempLog(t)

	SetLevel(zapcore.WarnLevel)
	GetLogger().Info("hidden message")
	GetLogger().Warn("visible message")
	Sync()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(data, []byte("hidden message")))
	assert.True(t, bytes.Contains(data, []byte("visible message")))
}

func TestEmptyLogPathDisablesFile(t *testing.T) {
	useTempLog(t)
	SetLogPath("")

	assert.NotNil(t, GetLogger())
	assert.Nil(t, file)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
