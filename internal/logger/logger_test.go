package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&buf, level)
	l.now = fixedClock
	return l, &buf
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARNING", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"TRACE":   LevelDebug,
		"info":    LevelInfo,
		" Warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Infof("Folders done (%d)", 3)

	assert.Equal(t, "2024-05-06 07:08:09 :: INFO :: Folders done (3)\n", buf.String())
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debugf("debug")
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], ":: WARNING :: warn")
	assert.Contains(t, lines[1], ":: ERROR :: error")

	buf.Reset()
	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.Level())
	l.Debugf("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_NoColorForBuffers(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)
	assert.False(t, l.colorOutput)

	l.Errorf("plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Infof("ignored") })

	d := Discard()
	assert.NotPanics(t, func() { d.Errorf("ignored") })
}

func TestLogger_File(t *testing.T) {
	l, buf := newTestLogger(LevelError)
	path := filepath.Join(t.TempDir(), "logs", "bw2kp.log")

	require.NoError(t, l.SetFile(FileOptions{Path: path}))

	l.Debugf("only in file")
	l.Errorf("in both")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-05-06 07:08:09 :: DEBUG :: only in file")
	assert.Contains(t, string(data), ":: ERROR :: in both")

	assert.NotContains(t, buf.String(), "only in file")
	assert.Contains(t, buf.String(), "in both")

	// Closing twice is fine.
	assert.NoError(t, l.Close())
}

func TestLogger_SetFileEmptyPath(t *testing.T) {
	l, _ := newTestLogger(LevelInfo)
	assert.Error(t, l.SetFile(FileOptions{}))
}
