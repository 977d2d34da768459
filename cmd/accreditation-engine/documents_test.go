package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "report.txt", "page one\fpage two\f\f")
	csv := writeFile(t, dir, "stats.CSV", "field,value\nfaculty_count,40\n")
	single := writeFile(t, dir, "one.json", `{"name":"ocr.pdf","pages":[{"page_number":3,"text":"faculty 40"}]}`)
	many := writeFile(t, dir, "many.json", ` [{"name":"a.pdf","pages":[]},{"name":"b.pdf","pages":[]}]`)

	docs, err := loadDocuments([]string{text, csv, single, many})
	require.NoError(t, err)
	require.Len(t, docs, 5)

	assert.Equal(t, "report.txt", docs[0].Name)
	require.Len(t, docs[0].Pages, 2)
	assert.Equal(t, 2, docs[0].Pages[1].Number)
	assert.Equal(t, "page two", docs[0].Pages[1].Text)

	assert.Equal(t, "csv", docs[1].Kind)
	assert.Equal(t, "field,value\nfaculty_count,40\n", docs[1].FullText())

	assert.Equal(t, "ocr.pdf", docs[2].Name)
	assert.Equal(t, 3, docs[2].Pages[0].Number)
	assert.Equal(t, "b.pdf", docs[4].Name)

	_, err = loadDocuments([]string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
	bad := writeFile(t, dir, "bad.json", "{not json")
	_, err = loadDocuments([]string{bad})
	assert.Error(t, err)
}

func TestParseFloatMap(t *testing.T) {
	got, err := parseFloatMap(map[string]string{"overall_score": "0.6", " fsr_score ": " 0.4"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"overall_score": 0.6, "fsr_score": 0.4}, got)

	_, err = parseFloatMap(map[string]string{"overall_score": "high"})
	assert.Error(t, err)
}
