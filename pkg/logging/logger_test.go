package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type buffer struct {
	bytes.Buffer
}

func (b *buffer) Sync() error { return nil }

func TestNew(t *testing.T) {
	var out buffer
	logger, err := NewWithOutput("info", "json", &out)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("secret created", zap.String("path", "foo"), Value("value", []byte("hunter2")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "secret created", entry["msg"])
	assert.Equal(t, "foo", entry["path"])
	assert.Equal(t, "[REDACTED:7]", entry["value"])
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, out.String(), "hunter2")
	assert.NotContains(t, out.String(), "hidden")
}

func TestNew_Console(t *testing.T) {
	var out buffer
	logger, err := NewWithOutput("debug", "console", &out)
	require.NoError(t, err)

	logger.Debug("visible")
	assert.Contains(t, out.String(), "visible")
	assert.Contains(t, out.String(), "DEBUG")
}

func TestNew_Errors(t *testing.T) {
	_, err := New("loud", "json")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}

func TestRedacted(t *testing.T) {
	secret := Redacted("hunter2")
	assert.Equal(t, "[REDACTED:7]", fmt.Sprintf("%v", secret))
	assert.Equal(t, "[REDACTED:7]", fmt.Sprintf("%#v", secret))
	assert.Equal(t, "[REDACTED:0]", Redacted(nil).String())
}

func TestNewObserved(t *testing.T) {
	logger, observed := NewObserved()
	StdLogger(logger).Print("panic recovered")

	entries := observed.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}
