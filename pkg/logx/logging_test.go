package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestWriterLoggerFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "INFO").With(String("comp", "test"))

	log.Debug("hidden")
	log.Info("shown", Int("n", 3), Err(errors.New("boom")))
	log.Critical("bad", Bool("flag", true))

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "test", got[0]["comp"])
	assert.Equal(t, float64(3), got[0]["n"])
	assert.Equal(t, "boom", got[0]["err"])
	assert.Equal(t, "fatal", got[1]["level"])
	assert.Equal(t, true, got[1]["flag"])
	assert.NotEmpty(t, got[1]["caller"])
}

func TestWithDoesNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriter(&buf, "DEBUG")
	a := base.With(String("who", "a"))
	b := base.With(String("who", "b"))
	a.Info("x")
	b.Info("y")

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["who"])
	assert.Equal(t, "b", got[1]["who"])
}

func TestZeroAndNopLoggers(t *testing.T) {
	var zero Logger
	assert.True(t, zero.IsZero())
	zero.Info("dropped")
	assert.False(t, Nop().IsZero())
	Nop().Critical("dropped")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" debug "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, LevelCritical, ParseLevel("critical"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestServiceFileSinkAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	svc, log := New(Config{Level: "INFO", File: FileConfig{Enabled: true, Path: path}})
	t.Cleanup(func() { _ = svc.Close() })

	log.Debug("filtered")
	log.Info("first")
	svc.Apply(Config{Level: "DEBUG", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("second")
	assert.True(t, log.Enabled(LevelDebug))
	require.NoError(t, svc.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.NotContains(t, text, "filtered")
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "second")
	assert.Equal(t, "DEBUG", svc.Config().Level)
}
