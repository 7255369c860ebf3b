package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, item{ID: "a", Title: "one"}))
	require.NoError(t, WriteLine(&buf, item{ID: "b", Title: "two"}))

	assert.Equal(t, "{\"id\":\"a\",\"title\":\"one\"}\n{\"id\":\"b\",\"title\":\"two\"}\n", buf.String())
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", buf.String())
}

func TestWriteError(t *testing.T) {
	t.Run("with data", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteError(&buf, "boom", map[string]any{"id": "x"}))
		assert.JSONEq(t, `{"message":"boom","data":{"id":"x"}}`, buf.String())
	})

	t.Run("unencodable data", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteError(&buf, "boom", map[string]any{"fn": func() {}}))

		got, err := Decode[Error](&buf)
		require.NoError(t, err)
		assert.Equal(t, "boom", got.Message)
		assert.Contains(t, got.Data, "json_error")
	})
}

func TestFileReader(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","title":"one"}]`), 0o644))

		fr := &FileReader[[]item]{path: path}
		got, err := fr.Read(strings.NewReader("ignored"))
		require.NoError(t, err)
		assert.Equal(t, []item{{ID: "a", Title: "one"}}, got)
	})

	t.Run("from stdin", func(t *testing.T) {
		fr := &FileReader[[]item]{path: "-"}
		got, err := fr.Read(strings.NewReader(`[{"id":"b"}]`))
		require.NoError(t, err)
		assert.Equal(t, []item{{ID: "b"}}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		fr := &FileReader[item]{path: filepath.Join(t.TempDir(), "nope.json")}
		_, err := fr.Read(strings.NewReader(""))
		require.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		fr := &FileReader[item]{}
		_, err := fr.Read(strings.NewReader("{"))
		require.ErrorContains(t, err, "decode json")
	})

	t.Run("flag binds path", func(t *testing.T) {
		fr := &FileReader[item]{}
		f := fr.Flag()
		assert.Equal(t, "file", f.Name)
		assert.Equal(t, &fr.path, f.Destination)
	})
}
