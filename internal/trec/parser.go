// Package trec segments a TREC-formatted byte stream into documents and
// extracts the fields the indexer needs: a monotonic docID, the document's
// URL, and its token list.
package trec

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/wizenheimer/marcodex/internal/tokenize"
)

// Document is a single parsed TREC record.
type Document struct {
	DocID  uint32
	URL    string
	Tokens []string
}

// textRe extracts the body of a <TEXT>...</TEXT> section. Non-greedy and
// single-line-flag enabled so <TEXT> may span multiple lines, matching the
// parser this was modeled on.
var textRe = regexp.MustCompile(`(?s)<TEXT>(.*?)</TEXT>`)

// Parse converts one accumulated "<DOC>...</DOC>" block into a Document.
// docID is assigned by the caller's monotonic counter — the <DOCNO> value
// inside the block is never used for ID purposes (spec.md §4.2, §9).
func Parse(block string, docID uint32, opts tokenize.Options) Document {
	text := extractText(block)
	return Document{
		DocID:  docID,
		URL:    extractURL(text),
		Tokens: tokenize.AnalyzeWithOptions(text, opts),
	}
}

// extractText returns the trimmed contents of the <TEXT>...</TEXT> section,
// or "" if none is present.
func extractText(block string) string {
	m := textRe.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractURL returns the first non-blank trimmed line of the text body.
func extractURL(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Scanner walks a line-oriented stream, accumulating lines until one
// containing the literal "</DOC>" closes a block, and yields each
// document to fn with a freshly assigned, monotonically increasing docID.
//
// limit caps the number of documents processed (0 means unlimited),
// mirroring the original pipeline's debug document-count limit.
type Scanner struct {
	r       *bufio.Reader
	opts    tokenize.Options
	limit   int
	nextID  uint32
	current []string
}

// NewScanner wraps r for document-at-a-time TREC parsing.
func NewScanner(r io.Reader, opts tokenize.Options, limit int) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 1<<20), opts: opts, limit: limit}
}

// Each invokes fn once per parsed document, in ingestion order, stopping
// at EOF, at the debug limit (if set), or on the first read error other
// than EOF.
func (s *Scanner) Each(fn func(Document) error) error {
	for {
		if s.limit > 0 && int(s.nextID) >= s.limit {
			break
		}

		line, err := s.r.ReadString('\n')
		if len(line) > 0 {
			s.current = append(s.current, strings.TrimRight(line, "\r\n"))
			if strings.Contains(line, "</DOC>") {
				if ferr := s.flush(fn); ferr != nil {
					return ferr
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	// A trailing block that never saw a closing tag is still processed,
	// matching the original pipeline's handling of a truncated stream.
	if len(s.current) > 0 {
		return s.flush(fn)
	}
	return nil
}

func (s *Scanner) flush(fn func(Document) error) error {
	block := strings.Join(s.current, "\n")
	s.current = s.current[:0]

	doc := Parse(block, s.nextID, s.opts)
	s.nextID++
	return fn(doc)
}
