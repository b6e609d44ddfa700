package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/bryanwahyu/image-caption/internal/domain/caption"
)

func TestAnalyzeCommand(t *testing.T) {
	want := caption.Result{
		AltText:     "Mountains at dusk",
		Description: "Snowy peaks under an orange sky.",
		Analysis:    caption.PlaceholderAnalysis(),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": want})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "peaks.png")
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 16)...)
	require.NoError(t, os.WriteFile(path, png, 0o600))

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	require.NoError(t, app.Run([]string{"captionctl", "analyze", "--server", srv.URL, "--json", path}))
	var got caption.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, want, got)

	out.Reset()
	require.NoError(t, app.Run([]string{"captionctl", "analyze", "--server", srv.URL, path}))
	assert.Contains(t, out.String(), "Alt Text:     Mountains at dusk")
}

func TestAnalyzeCommand_RequiresFile(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}
	assert.Error(t, app.Run([]string{"captionctl", "analyze"}))
}
