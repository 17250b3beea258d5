package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunrag-go/internal/model"
)

func TestExtract_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello world. This is ChunRAG."), 0o644))

	text, err := NewExtractor().Extract(path, "note.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello world. This is ChunRAG.", text)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := NewExtractor().Extract("/tmp/whatever.exe", "whatever.exe")
	var ufe *model.UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ".exe", ufe.Ext)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "gone.md"), "gone.md")
	var ee *model.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "gone.md", ee.FileName)
}

func TestExtract_ExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DATA.CSV")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c"), 0o644))

	text, err := NewExtractor().Extract(path, "DATA.CSV")
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", text)
}
