// Package query implements the disk-resident query processor (spec.md
// §4.7): directory lookup, lexicon scan, blocked posting decode with and
// without skip, and BM25-ranked disjunctive/conjunctive retrieval.
// Grounded on the teacher's InvertedIndex.mu-guarded state (index.go) for
// the concurrency model, and on
// original_source/src/{term_query_processor.rs,query_processor.rs} for
// the directory/lexicon/block-decode algorithms.
package query

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/wizenheimer/marcodex/internal/binfmt"
	"github.com/wizenheimer/marcodex/internal/config"
	"github.com/wizenheimer/marcodex/internal/docmeta"
	"github.com/wizenheimer/marcodex/internal/lexicon"
	"github.com/wizenheimer/marcodex/internal/tokenize"
)

// Result is one ranked hit returned by Disjunctive/Conjunctive.
type Result struct {
	DocID uint32  `json:"doc_id"`
	URL   string  `json:"doc_url"`
	Score float64 `json:"score"`
}

// cachedPostings holds a term's fully-decoded posting list in two shapes:
// a roaring.Bitmap for O(1) membership tests and a parallel docID→freq
// map for score recomputation, populated together the first time a term
// is fully decoded (disjunctive path, or a conjunctive driver).
type cachedPostings struct {
	bitmap *roaring.Bitmap
	freqs  map[uint32]uint32
}

// Processor serves queries against a built index directory. It holds
// read-only file handles plus the caches spec.md §4.7 names; every query
// runs under mu, the single-writer lock spec.md §5 requires.
type Processor struct {
	mu sync.Mutex

	indexFile     *os.File
	lexiconFile   *os.File
	directoryFile *os.File

	docMeta   map[uint32]docmeta.Meta
	totalDocs uint32
	avgDocLen float64

	directory []lexicon.DirectoryEntry // fully loaded, sorted lexicographically

	directoryCache map[string]uint64
	metaCache      map[string]lexicon.TermMetadata
	postingsCache  map[string]cachedPostings

	tokOpts tokenize.Options
}

// Open loads a built index directory into a ready-to-serve Processor.
func Open(dataDir string, tokOpts tokenize.Options) (*Processor, error) {
	indexFile, err := os.Open(dataDir + "/" + config.IndexFile)
	if err != nil {
		return nil, fmt.Errorf("query: open index file: %w", err)
	}
	lexiconFile, err := os.Open(dataDir + "/" + config.LexiconFile)
	if err != nil {
		indexFile.Close()
		return nil, fmt.Errorf("query: open lexicon file: %w", err)
	}
	directoryFile, err := os.Open(dataDir + "/" + config.DirectoryFile)
	if err != nil {
		indexFile.Close()
		lexiconFile.Close()
		return nil, fmt.Errorf("query: open directory file: %w", err)
	}

	br := bufio.NewReader(directoryFile)
	count, err := binfmt.ReadU32(br)
	if err != nil {
		return nil, fmt.Errorf("query: read directory header: %w", err)
	}
	entries, err := lexicon.ReadAllDirectoryEntries(br, count)
	if err != nil {
		return nil, fmt.Errorf("query: load directory: %w", err)
	}

	docMeta, err := docmeta.ReadAll(dataDir + "/" + config.DocMetadataFile)
	if err != nil {
		return nil, fmt.Errorf("query: load doc metadata: %w", err)
	}

	var totalLen uint64
	for _, m := range docMeta {
		totalLen += uint64(m.Length)
	}
	totalDocs := uint32(len(docMeta))
	avgDocLen := 0.0
	if totalDocs > 0 {
		avgDocLen = float64(totalLen) / float64(totalDocs)
	}

	return &Processor{
		indexFile:      indexFile,
		lexiconFile:    lexiconFile,
		directoryFile:  directoryFile,
		docMeta:        docMeta,
		totalDocs:      totalDocs,
		avgDocLen:      avgDocLen,
		directory:      entries,
		directoryCache: make(map[string]uint64),
		metaCache:      make(map[string]lexicon.TermMetadata),
		postingsCache:  make(map[string]cachedPostings),
		tokOpts:        tokOpts,
	}, nil
}

// Close releases the processor's file handles.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err1 := p.indexFile.Close()
	err2 := p.lexiconFile.Close()
	err3 := p.directoryFile.Close()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}

// TotalDocs, AvgDocLen and TotalTerms back the /stats debug endpoint.
func (p *Processor) TotalDocs() uint32 { return p.totalDocs }
func (p *Processor) AvgDocLen() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.avgDocLen
}
func (p *Processor) TotalTerms() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.metaCache)
}

// directoryOffset implements spec.md §4.7's term→lexicon-offset sweep as
// a binary search over the in-memory directory (permitted by spec.md §2's
// "binary-search" framing of the same operation), with the two edge-case
// policies this implementation chose: a term before the first directory
// bucket resolves to the lexicon header offset (so the lexicon scan still
// starts at the first real record); a term past the last bucket resolves
// to the last bucket's offset rather than erroring, so tail terms stay
// searchable.
func (p *Processor) directoryOffset(term string) uint64 {
	if cached, ok := p.directoryCache[term]; ok {
		return cached
	}

	idx := sort.Search(len(p.directory), func(i int) bool { return p.directory[i].Term >= term })

	var offset uint64
	switch {
	case len(p.directory) == 0:
		offset = config.LexiconHeaderSize
	case idx == len(p.directory):
		offset = p.directory[len(p.directory)-1].LexiconOffset
	case p.directory[idx].Term == term:
		offset = p.directory[idx].LexiconOffset
	case idx == 0:
		offset = config.LexiconHeaderSize
	default:
		offset = p.directory[idx-1].LexiconOffset
	}

	p.directoryCache[term] = offset
	return offset
}

// termMetadata resolves a query term to its lexicon record, per spec.md
// §4.7's "seek, scan forward until equal-or-greater" procedure.
func (p *Processor) termMetadata(term string) (lexicon.TermMetadata, bool, error) {
	if cached, ok := p.metaCache[term]; ok {
		return cached, true, nil
	}

	offset := p.directoryOffset(term)
	if _, err := p.lexiconFile.Seek(int64(offset), io.SeekStart); err != nil {
		return lexicon.TermMetadata{}, false, fmt.Errorf("query: seek lexicon: %w", err)
	}

	r := bufio.NewReader(p.lexiconFile)
	for {
		rec, err := lexicon.ReadRecord(r)
		if err != nil {
			if err == io.EOF {
				return lexicon.TermMetadata{}, false, nil
			}
			return lexicon.TermMetadata{}, false, fmt.Errorf("query: read lexicon record: %w", err)
		}

		if rec.Term == term {
			p.metaCache[term] = rec
			return rec, true, nil
		}
		if rec.Term > term {
			return lexicon.TermMetadata{}, false, nil
		}
		// rec.Term < term: ReadRecord already consumed exactly this
		// record's bytes, so the cursor is positioned on the next one.
	}
}

// decodeFrom decodes every block from startBlock to the end of the term's
// posting list, seeking directly to startBlock's recorded offset.
func (p *Processor) decodeFrom(meta lexicon.TermMetadata, startBlock int) ([]binfmt.Posting, error) {
	if startBlock >= int(meta.NumBlocks) {
		return nil, nil
	}

	if _, err := p.indexFile.Seek(int64(meta.BlockOffsets[startBlock]), io.SeekStart); err != nil {
		return nil, fmt.Errorf("query: seek index file: %w", err)
	}
	r := bufio.NewReader(p.indexFile)

	var out []binfmt.Posting
	for i := startBlock; i < int(meta.NumBlocks); i++ {
		blockSize := config.BlockSize
		if i == int(meta.NumBlocks)-1 {
			blockSize = int(meta.NumPostingLastBlock)
		}

		docIDBytes := make([]byte, meta.CompressedDocIDSize[i])
		if _, err := io.ReadFull(r, docIDBytes); err != nil {
			return nil, fmt.Errorf("query: read docID block %d: %w", i, err)
		}
		docIDs, err := binfmt.DecodeVbyte(docIDBytes, blockSize)
		if err != nil {
			return nil, fmt.Errorf("query: decode docID block %d: %w", i, err)
		}

		freqBytes := make([]byte, blockSize*4)
		if _, err := io.ReadFull(r, freqBytes); err != nil {
			return nil, fmt.Errorf("query: read freq block %d: %w", i, err)
		}

		for j := 0; j < blockSize; j++ {
			freq := uint32(freqBytes[j*4]) | uint32(freqBytes[j*4+1])<<8 |
				uint32(freqBytes[j*4+2])<<16 | uint32(freqBytes[j*4+3])<<24
			out = append(out, binfmt.Posting{DocID: docIDs[j], Freq: freq})
		}
	}

	return out, nil
}

// decodeFull decodes a term's entire posting list.
func (p *Processor) decodeFull(meta lexicon.TermMetadata) ([]binfmt.Posting, error) {
	return p.decodeFrom(meta, 0)
}

// decodeWithSkip decodes only the postings with docID >= k, locating the
// first block whose maximum docID already reaches k and decoding forward
// from there (spec.md §4.7's skip-decode).
func (p *Processor) decodeWithSkip(meta lexicon.TermMetadata, k uint32) ([]binfmt.Posting, error) {
	startBlock := sort.Search(len(meta.BlockMaxima), func(i int) bool { return meta.BlockMaxima[i] >= k })
	if startBlock == len(meta.BlockMaxima) {
		return nil, nil
	}

	postings, err := p.decodeFrom(meta, startBlock)
	if err != nil {
		return nil, err
	}

	filtered := postings[:0:0]
	for _, post := range postings {
		if post.DocID >= k {
			filtered = append(filtered, post)
		}
	}
	return filtered, nil
}

// cachePostings materializes a fully-decoded posting list into the
// roaring-bitmap membership cache described in SPEC_FULL.md §4.7.
func (p *Processor) cachePostings(term string, postings []binfmt.Posting) cachedPostings {
	if cached, ok := p.postingsCache[term]; ok {
		return cached
	}
	bitmap := roaring.New()
	freqs := make(map[uint32]uint32, len(postings))
	for _, post := range postings {
		bitmap.Add(post.DocID)
		freqs[post.DocID] = post.Freq
	}
	cached := cachedPostings{bitmap: bitmap, freqs: freqs}
	p.postingsCache[term] = cached
	return cached
}

func (p *Processor) url(docID uint32) string {
	if m, ok := p.docMeta[docID]; ok {
		return m.URL
	}
	return ""
}

func (p *Processor) docLen(docID uint32) float64 {
	if m, ok := p.docMeta[docID]; ok {
		return float64(m.Length)
	}
	return p.avgDocLen
}

// sortResults orders by score descending, breaking ties by docID
// ascending for deterministic output (spec.md §7).
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
}

func topK(results []Result) []Result {
	if len(results) > config.TopK {
		results = results[:config.TopK]
	}
	return results
}

// Disjunctive ranks documents containing ANY query term (spec.md §4.7's
// OR query), scoring each with the summed BM25 contribution of every
// matching term. A term absent from the lexicon contributes nothing and
// the query continues with whatever terms are found.
func (p *Processor) Disjunctive(query string) ([]Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tokens := tokenize.AnalyzeWithOptions(query, p.tokOpts)
	scores := make(map[uint32]float64)

	for _, term := range tokens {
		meta, ok, err := p.termMetadata(term)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		postings, err := p.decodeFull(meta)
		if err != nil {
			return nil, err
		}
		p.cachePostings(term, postings)

		for _, post := range postings {
			scores[post.DocID] += score(float64(post.Freq), meta.DocFreq, p.totalDocs, p.docLen(post.DocID), p.avgDocLen)
		}
	}

	results := make([]Result, 0, len(scores))
	for docID, s := range scores {
		results = append(results, Result{DocID: docID, URL: p.url(docID), Score: s})
	}
	sortResults(results)
	return topK(results), nil
}

// Conjunctive ranks documents containing EVERY query term (spec.md §4.7's
// AND query). A term absent from the lexicon makes the intersection empty
// outright, since no document can satisfy a posting list that does not
// exist (this implementation's resolution of spec.md §9's open question,
// matching the worked example in spec.md §8).
func (p *Processor) Conjunctive(query string) ([]Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tokens := dedupe(tokenize.AnalyzeWithOptions(query, p.tokOpts))
	if len(tokens) == 0 {
		return []Result{}, nil
	}

	metas := make(map[string]lexicon.TermMetadata, len(tokens))
	for _, term := range tokens {
		meta, ok, err := p.termMetadata(term)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []Result{}, nil
		}
		metas[term] = meta
	}

	driver := tokens[0]
	for _, term := range tokens[1:] {
		if metas[term].DocFreq < metas[driver].DocFreq {
			driver = term
		}
	}

	driverPostings, err := p.decodeFull(metas[driver])
	if err != nil {
		return nil, err
	}
	p.cachePostings(driver, driverPostings)

	candidates := make(map[uint32]float64, len(driverPostings))
	for _, post := range driverPostings {
		meta := metas[driver]
		candidates[post.DocID] = score(float64(post.Freq), meta.DocFreq, p.totalDocs, p.docLen(post.DocID), p.avgDocLen)
	}

	for _, term := range tokens {
		if term == driver {
			continue
		}
		meta := metas[term]

		next := make(map[uint32]float64, len(candidates))
		if cached, ok := p.postingsCache[term]; ok {
			for docID, partial := range candidates {
				if cached.bitmap.Contains(docID) {
					freq := cached.freqs[docID]
					next[docID] = partial + score(float64(freq), meta.DocFreq, p.totalDocs, p.docLen(docID), p.avgDocLen)
				}
			}
		} else {
			for docID, partial := range candidates {
				hits, err := p.decodeWithSkip(meta, docID)
				if err != nil {
					return nil, err
				}
				if len(hits) > 0 && hits[0].DocID == docID {
					next[docID] = partial + score(float64(hits[0].Freq), meta.DocFreq, p.totalDocs, p.docLen(docID), p.avgDocLen)
				}
			}
		}
		candidates = next
	}

	results := make([]Result, 0, len(candidates))
	for docID, s := range candidates {
		results = append(results, Result{DocID: docID, URL: p.url(docID), Score: s})
	}
	sortResults(results)
	return topK(results), nil
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
