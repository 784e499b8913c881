package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewSetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, l)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), tt.input)
	}
}

func TestBaseFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "staging", LogLevel: "debug", LogFormat: "json"}, &buf)

	l.Info("hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, serviceName, lines[0]["service"])
	assert.Equal(t, "staging", lines[0]["env"])
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	l := &Logger{zlog: zerolog.New(&buf)}

	l.WithSymbol("005930", "KR").WithFields(map[string]interface{}{"score": 72}).Warn("scored")
	l.WithError(errors.New("boom")).Errorf("fetch %s failed", "AAPL")
	l.WithField("job", "market_warmup").Debug("tick")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "005930", lines[0]["symbol"])
	assert.Equal(t, "KR", lines[0]["market"])
	assert.EqualValues(t, 72, lines[0]["score"])
	assert.Equal(t, "warn", lines[0]["level"])

	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "fetch AAPL failed", lines[1]["message"])

	assert.Equal(t, "market_warmup", lines[2]["job"])
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.WithField("k", "v").Info("nothing")
		l.Errorf("nothing %d", 1)
	})
}
