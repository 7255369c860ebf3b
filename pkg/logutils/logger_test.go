package logutils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := newLogger("", "", &buf)
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_ParsesLevel(t *testing.T) {
	l, closer, err := newLogger(" DEBUG ", "", &bytes.Buffer{})
	require.NoError(t, err)
	defer closer()
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	_, _, err = New("loud", "")
	require.ErrorContains(t, err, "parse log level")
}

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tally.log")

	for _, msg := range []string{"first", "second"} {
		l, closer, err := New("info", path)
		require.NoError(t, err)
		l.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}
