package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dslipak/pdf"
	"github.com/liliang-cn/docchat/internal/config"
	"github.com/liliang-cn/docchat/internal/domain"
	"go.uber.org/zap"
)

// snippetContext is the number of characters of context kept on each side of
// a search match.
const snippetContext = 100

// PDFService resolves, reads and searches PDF documents under a single
// directory. Extracted text and metadata are cached for the process lifetime;
// entries are only dropped by ClearCache.
type PDFService struct {
	dir    string
	logger *zap.Logger

	// mu guards the two cache maps only, never the surrounding I/O
	mu        sync.RWMutex
	textCache map[string]map[int]string
	metaCache map[string]*domain.PDFMetadata
}

// NewPDFService creates a new PDF service, creating the document directory
// if it does not exist
func NewPDFService(cfg *config.Config, logger *zap.Logger) (*PDFService, error) {
	dir := cfg.Storage.PDFs
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pdf directory: %w", err)
	}

	return &PDFService{
		dir:       dir,
		logger:    logger,
		textCache: make(map[string]map[int]string),
		metaCache: make(map[string]*domain.PDFMetadata),
	}, nil
}

// Resolve maps a filename to its on-disk path. The filename is collapsed to
// its base name before joining, which neutralizes path traversal. Anything
// that does not exist or lacks a .pdf extension yields ErrNotFound.
func (s *PDFService) Resolve(filename string) (string, error) {
	name := filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", domain.ErrNotFound
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", domain.ErrNotFound
	}
	return path, nil
}

// List returns the PDF filenames in the document directory
func (s *PDFService) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Metadata returns document-level metadata, cached by filename. Read
// failures are logged and reported as ErrNotFound.
func (s *PDFService) Metadata(filename string) (*domain.PDFMetadata, error) {
	name := filepath.Base(filename)

	s.mu.RLock()
	meta, ok := s.metaCache[name]
	s.mu.RUnlock()
	if ok {
		return meta, nil
	}

	path, err := s.Resolve(filename)
	if err != nil {
		return nil, err
	}

	meta, err = readMetadata(path, name)
	if err != nil {
		s.logger.Warn("failed to read pdf metadata",
			zap.String("filename", name),
			zap.Error(err),
		)
		return nil, domain.ErrNotFound
	}

	s.mu.Lock()
	s.metaCache[name] = meta
	s.mu.Unlock()

	return meta, nil
}

// ExtractText extracts text from a PDF, returning a page-number-to-text map.
// page 0 means the whole document; a positive page returns a single-entry
// map. Only whole-document extractions populate the cache, so a per-page
// lookup never leaves a partial entry behind.
func (s *PDFService) ExtractText(filename string, page int) (map[int]string, error) {
	name := filepath.Base(filename)

	s.mu.RLock()
	cached, ok := s.textCache[name]
	s.mu.RUnlock()
	if ok {
		if page > 0 {
			text, ok := cached[page]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return map[int]string{page: text}, nil
		}
		return cached, nil
	}

	path, err := s.Resolve(filename)
	if err != nil {
		return nil, err
	}

	pages, err := extractPages(path, page)
	if err != nil {
		s.logger.Warn("failed to extract pdf text",
			zap.String("filename", name),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil, domain.ErrNotFound
	}

	if page > 0 {
		text, ok := pages[page]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return map[int]string{page: text}, nil
	}

	s.mu.Lock()
	s.textCache[name] = pages
	s.mu.Unlock()

	return pages, nil
}

// PageContent returns the extracted text of a single page. The page number
// must already be validated as >= 1 by the caller.
func (s *PDFService) PageContent(filename string, page int) (*domain.PageContent, error) {
	pages, err := s.ExtractText(filename, page)
	if err != nil {
		return nil, err
	}

	text, ok := pages[page]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return &domain.PageContent{PageNumber: page, Text: text}, nil
}

// Search performs a case-insensitive substring search over every page of a
// document. Each page contributes at most one match, built around the first
// occurrence, and results come back in ascending page order.
func (s *PDFService) Search(filename, query string) ([]domain.SearchMatch, error) {
	pages, err := s.ExtractText(filename, 0)
	if err != nil {
		return nil, err
	}

	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	results := make([]domain.SearchMatch, 0)
	for _, n := range nums {
		snippet, ok := makeSnippet(pages[n], query)
		if !ok {
			continue
		}
		results = append(results, domain.SearchMatch{Page: n, Snippet: snippet})
	}
	return results, nil
}

// ClearCache drops all cached text and metadata
func (s *PDFService) ClearCache() {
	s.mu.Lock()
	s.textCache = make(map[string]map[int]string)
	s.metaCache = make(map[string]*domain.PDFMetadata)
	s.mu.Unlock()
}

// makeSnippet finds the first case-insensitive occurrence of query in text
// and returns up to snippetContext characters of context on each side,
// trimmed and marked with "..." where truncated.
func makeSnippet(text, query string) (string, bool) {
	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	q := []rune(strings.ToLower(query))
	idx := indexRunes(lower, q)
	if idx < 0 {
		return "", false
	}

	start := idx - snippetContext
	if start < 0 {
		start = 0
	}
	end := idx + len(q) + snippetContext
	if end > len(runes) {
		end = len(runes)
	}

	snippet := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet, true
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		j := 0
		for ; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}

// readMetadata reads title, author, page count and file size. The pdf
// library panics on malformed input, so the panic is converted to an error
// here and handled like any other read failure.
func readMetadata(path, name string) (meta *domain.PDFMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	meta = &domain.PDFMetadata{
		Filename: name,
		NumPages: r.NumPage(),
		FileSize: info.Size(),
	}
	if dict := r.Trailer().Key("Info"); !dict.IsNull() {
		meta.Title = dict.Key("Title").Text()
		meta.Author = dict.Key("Author").Text()
	}
	return meta, nil
}

// extractPages walks the document page by page. With a positive page the
// walk stops once the target page has been extracted; other pages are
// skipped since the format offers no random access. Panics from the pdf
// library are converted to errors.
func extractPages(path string, page int) (pages map[int]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}

	pages = make(map[int]string)
	for i := 1; i <= r.NumPage(); i++ {
		if page > 0 && i != page {
			continue
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, perr := p.GetPlainText(nil)
		if perr != nil {
			return nil, perr
		}
		pages[i] = text

		if page > 0 {
			break
		}
	}
	return pages, nil
}
