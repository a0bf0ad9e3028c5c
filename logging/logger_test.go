package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}

	_, err := ParseLogLevel("verbose")
	require.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(func(o *Options) {
		o.Format = "json"
		o.Output = &buf
		o.Component = "pipeline"
	})

	l.Info("pipeline.step.start", "step", 1)
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"pipeline.step.start"`)
	assert.Contains(t, out, `"component":"pipeline"`)
	assert.Contains(t, out, `"step":1`)
	assert.NotContains(t, out, "hidden")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(func(o *Options) { o.Output = &buf })

	With(l, "agent", "pt_agent").Warn("agent.run.slow")
	assert.True(t, strings.Contains(buf.String(), "agent=pt_agent"))

	var noop Logger = NoOpLogger{}
	assert.Equal(t, noop, With(noop, "k", "v"))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
