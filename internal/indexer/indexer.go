// Package indexer accumulates tokenized documents in memory, grouped by
// term, until a batch threshold is reached, then spills a sorted batch
// file to a scratch directory (spec.md §4.3, §4.4). Grounded on
// original_source/src/indexer.rs's Indexer struct (postings map, doc
// metadata map, bidirectional term↔ID map) with the postings spill format
// itself taken from the teacher's binary.Write idiom instead of bincode.
package indexer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/wizenheimer/marcodex/internal/binfmt"
	"github.com/wizenheimer/marcodex/internal/docmeta"
	"github.com/wizenheimer/marcodex/internal/trec"
)

// Indexer holds everything accumulated for the current in-flight batch,
// plus the corpus-wide state that survives every spill: document metadata,
// the term↔ID map, and the all-docs bitmap.
type Indexer struct {
	postings map[string]map[uint32]uint32 // term -> docID -> freq, current batch only

	docMeta map[uint32]docmeta.Meta // corpus-wide, persisted once at the end

	termToID map[string]uint32
	idToTerm []string

	// allDocs tracks every docID indexed so far, across all batches.
	// Grounded on the teacher's DocBitmaps hybrid-storage design
	// (index.go) — the same roaring.Bitmap used there for document-level
	// set membership, reused here as a cheap corpus-wide cardinality and
	// membership structure rather than per-term bitmaps.
	allDocs *roaring.Bitmap

	batchDocs int // documents accumulated in the current batch
	batchSeq  int // number of batches spilled so far
}

// New returns an empty Indexer.
func New() *Indexer {
	return &Indexer{
		postings: make(map[string]map[uint32]uint32),
		docMeta:  make(map[uint32]docmeta.Meta),
		termToID: make(map[string]uint32),
		allDocs:  roaring.New(),
	}
}

// Process folds one parsed document into the current batch: records its
// metadata, assigns/reuses term IDs, and accumulates per-term frequencies.
func (ix *Indexer) Process(doc trec.Document) {
	ix.docMeta[doc.DocID] = docmeta.Meta{URL: doc.URL, Length: uint32(len(doc.Tokens))}
	ix.allDocs.Add(doc.DocID)

	freqs := make(map[string]uint32, len(doc.Tokens))
	for _, tok := range doc.Tokens {
		freqs[tok]++
	}

	for term, freq := range freqs {
		ix.termID(term)

		byDoc, ok := ix.postings[term]
		if !ok {
			byDoc = make(map[uint32]uint32)
			ix.postings[term] = byDoc
		}
		byDoc[doc.DocID] += freq
	}

	ix.batchDocs++
}

// termID returns term's ID, assigning the next sequential ID the first
// time a term is seen (original_source/src/indexer.rs's term_id_map).
func (ix *Indexer) termID(term string) uint32 {
	if id, ok := ix.termToID[term]; ok {
		return id
	}
	id := uint32(len(ix.idToTerm))
	ix.termToID[term] = id
	ix.idToTerm = append(ix.idToTerm, term)
	return id
}

// TermID reports the ID assigned to term, if any.
func (ix *Indexer) TermID(term string) (uint32, bool) {
	id, ok := ix.termToID[term]
	return id, ok
}

// BatchDocs reports how many documents have accumulated in the current,
// unspilled batch.
func (ix *Indexer) BatchDocs() int {
	return ix.batchDocs
}

// TotalDocs reports how many documents have been indexed across every
// batch so far.
func (ix *Indexer) TotalDocs() uint64 {
	return ix.allDocs.GetCardinality()
}

// Spill sorts the current batch's postings by term string and writes them
// as a length-prefixed batch file under scratchDir, then clears the
// in-memory batch (spec.md §4.4). It is a no-op if the batch is empty.
func (ix *Indexer) Spill(scratchDir string) (string, error) {
	if len(ix.postings) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	name := fmt.Sprintf("batch_%04d.data", ix.batchSeq)
	path := filepath.Join(scratchDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("indexer: create batch file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, term := range terms {
		byDoc := ix.postings[term]
		docIDs := make([]uint32, 0, len(byDoc))
		for id := range byDoc {
			docIDs = append(docIDs, id)
		}
		sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

		rec := binfmt.TermPostings{Term: term, Postings: make([]binfmt.Posting, len(docIDs))}
		for i, id := range docIDs {
			rec.Postings[i] = binfmt.Posting{DocID: id, Freq: byDoc[id]}
		}
		if err := binfmt.WriteRecord(w, rec); err != nil {
			return "", fmt.Errorf("indexer: write record for %q: %w", term, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("indexer: flush %s: %w", path, err)
	}

	ix.postings = make(map[string]map[uint32]uint32)
	ix.batchDocs = 0
	ix.batchSeq++

	return path, nil
}

// WriteDocMetadata persists every document's metadata collected so far.
func (ix *Indexer) WriteDocMetadata(path string) error {
	return docmeta.WriteAll(path, ix.docMeta)
}
