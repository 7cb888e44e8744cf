package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liliang-cn/docchat/internal/config"
	"github.com/liliang-cn/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPDFService(t *testing.T) *PDFService {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.PDFs = t.TempDir()

	s, err := NewPDFService(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// buildTestPDF assembles a minimal but well-formed PDF: one font, one
// content stream per page, an Info dictionary and a computed xref table.
// Text must not contain parentheses or backslashes.
func buildTestPDF(pageTexts []string, title, author string) []byte {
	n := len(pageTexts)
	var buf bytes.Buffer
	offsets := make(map[int]int)
	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i)
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	obj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i := range pageTexts {
		obj(4+i, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			4+n+i))
	}
	for i, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(4+n+i, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	info := 4 + 2*n
	obj(info, fmt.Sprintf("<< /Title (%s) /Author (%s) >>", title, author))

	size := info + 1
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for i := 1; i < size; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, info, xref)
	return buf.Bytes()
}

func TestPDFReadPipeline(t *testing.T) {
	s := newTestPDFService(t)

	raw := buildTestPDF([]string{
		"Global temperatures have risen significantly over the past century",
		"Renewable energy adoption is accelerating worldwide",
	}, "Climate Research", "Jane Doe")
	writeFile(t, s.dir, "climate_research.pdf", string(raw))

	meta, err := s.Metadata("climate_research.pdf")
	require.NoError(t, err)
	assert.Equal(t, "climate_research.pdf", meta.Filename)
	assert.Equal(t, 2, meta.NumPages)
	assert.Equal(t, "Climate Research", meta.Title)
	assert.Equal(t, "Jane Doe", meta.Author)
	assert.Equal(t, int64(len(raw)), meta.FileSize)

	// Per-page extraction reads the real file and must not leave a partial
	// full-document cache entry behind
	content, err := s.PageContent("climate_research.pdf", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, content.PageNumber)
	assert.Contains(t, content.Text, "Renewable energy adoption")
	_, cached := s.textCache["climate_research.pdf"]
	assert.False(t, cached, "per-page lookup must not populate the full cache")

	pages, err := s.ExtractText("climate_research.pdf", 0)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[1], "Global temperatures")
	assert.Contains(t, pages[2], "Renewable energy adoption")

	results, err := s.Search("climate_research.pdf", "renewable")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Page)
	assert.Contains(t, results[0].Snippet, "Renewable energy")

	// Full extraction populated the cache, so the file is no longer needed
	require.NoError(t, os.Remove(filepath.Join(s.dir, "climate_research.pdf")))
	pages, err = s.ExtractText("climate_research.pdf", 0)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	_, err = s.Metadata("climate_research.pdf")
	require.NoError(t, err, "metadata is served from cache")
}

func TestResolve(t *testing.T) {
	s := newTestPDFService(t)
	writeFile(t, s.dir, "doc.pdf", "not a real pdf")
	writeFile(t, s.dir, "notes.txt", "plain text")

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "existing pdf", filename: "doc.pdf"},
		{name: "traversal collapses to base name", filename: "../../etc/passwd", wantErr: true},
		{name: "traversal to existing pdf", filename: "sub/../doc.pdf"},
		{name: "wrong extension", filename: "notes.txt", wantErr: true},
		{name: "missing file", filename: "missing.pdf", wantErr: true},
		{name: "empty filename", filename: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := s.Resolve(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(s.dir, "doc.pdf"), path)
		})
	}
}

func TestList(t *testing.T) {
	s := newTestPDFService(t)
	writeFile(t, s.dir, "doc.pdf", "x")
	writeFile(t, s.dir, "other.PDF", "x")
	writeFile(t, s.dir, "notes.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(s.dir, "nested.pdf"), 0755))

	names, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc.pdf", "other.PDF"}, names)
}

func TestCorruptPDFIsNotFound(t *testing.T) {
	s := newTestPDFService(t)
	writeFile(t, s.dir, "broken.pdf", "definitely not pdf bytes")

	_, err := s.Metadata("broken.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.ExtractText("broken.pdf", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.PageContent("broken.pdf", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractTextServedFromCache(t *testing.T) {
	s := newTestPDFService(t)

	// No file on disk: every hit below must come from the cache
	s.textCache["cached.pdf"] = map[int]string{
		1: "alpha page",
		2: "beta page",
	}

	pages, err := s.ExtractText("cached.pdf", 2)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{2: "beta page"}, pages)

	pages, err = s.ExtractText("cached.pdf", 0)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	_, err = s.ExtractText("cached.pdf", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	content, err := s.PageContent("cached.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.PageContent{PageNumber: 1, Text: "alpha page"}, content)
}

func TestClearCache(t *testing.T) {
	s := newTestPDFService(t)
	s.textCache["cached.pdf"] = map[int]string{1: "alpha"}
	s.metaCache["cached.pdf"] = &domain.PDFMetadata{Filename: "cached.pdf", NumPages: 1}

	s.ClearCache()

	_, err := s.ExtractText("cached.pdf", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Metadata("cached.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearch(t *testing.T) {
	s := newTestPDFService(t)

	long := strings.Repeat("x", 150) + " Renewable energy " + strings.Repeat("y", 150)
	s.textCache["cached.pdf"] = map[int]string{
		1: long,
		2: "renewable power at the very start of a page, then renewable again",
		3: "nothing of interest here",
	}

	results, err := s.Search("cached.pdf", "RENEWABLE")
	require.NoError(t, err)
	require.Len(t, results, 2, "one match per page, non-matching pages skipped")

	assert.Equal(t, 1, results[0].Page)
	assert.True(t, strings.HasPrefix(results[0].Snippet, "..."))
	assert.True(t, strings.HasSuffix(results[0].Snippet, "..."))
	assert.Contains(t, results[0].Snippet, "Renewable energy")

	assert.Equal(t, 2, results[1].Page, "results come back in ascending page order")
	assert.False(t, strings.HasPrefix(results[1].Snippet, "..."),
		"no left marker when the match sits at the page start")
}

func TestMakeSnippet(t *testing.T) {
	t.Run("truncated both sides", func(t *testing.T) {
		text := strings.Repeat("a", 150) + " target " + strings.Repeat("b", 150)
		snippet, ok := makeSnippet(text, "TARGET")
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(snippet, "..."))
		assert.True(t, strings.HasSuffix(snippet, "..."))
		assert.Contains(t, snippet, "target")
	})

	t.Run("short text has no markers", func(t *testing.T) {
		snippet, ok := makeSnippet("hello world", "world")
		require.True(t, ok)
		assert.Equal(t, "hello world", snippet)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := makeSnippet("hello world", "absent")
		assert.False(t, ok)
	})

	t.Run("empty query never matches", func(t *testing.T) {
		_, ok := makeSnippet("hello world", "")
		assert.False(t, ok)
	})
}
