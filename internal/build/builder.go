// Package build implements the binary index builder (spec.md §4.6): it
// consumes the merged postings stream and writes the three persistent
// index files (bin_index.data, bin_lexicon.data, bin_directory.data),
// grounded on original_source/src/bin_indexer.rs's block-at-a-time
// compress-and-write loop, adapted to spec.md's literal lexicon-carries-
// block-metadata layout and to a no-delta-encoding docID scheme (see
// DESIGN.md).
package build

import (
	"bufio"
	"fmt"
	"os"

	"github.com/wizenheimer/marcodex/internal/binfmt"
	"github.com/wizenheimer/marcodex/internal/config"
	"github.com/wizenheimer/marcodex/internal/lexicon"
)

// Builder owns the three output file handles and the running counters
// needed to patch their headers once the merged stream is exhausted.
type Builder struct {
	indexFile    *os.File
	lexiconFile  *os.File
	directoryFile *os.File

	indexW    *countingWriter
	lexiconW  *countingWriter
	directoryW *countingWriter

	totalTerms           uint32
	totalDirectoryEntries uint32
}

// countingWriter tracks the number of bytes written so far, standing in
// for the original's stream_position() calls without needing a seekable
// writer for offset bookkeeping.
type countingWriter struct {
	w     *bufio.Writer
	count int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}

// New creates (truncating) the three output files under dataDir and
// reserves their 4-byte zero headers (spec.md §4.6's "initialized to zero
// at build start").
func New(dataDir string) (*Builder, error) {
	indexFile, err := os.Create(dataDir + "/" + config.IndexFile)
	if err != nil {
		return nil, fmt.Errorf("build: create index file: %w", err)
	}
	lexiconFile, err := os.Create(dataDir + "/" + config.LexiconFile)
	if err != nil {
		indexFile.Close()
		return nil, fmt.Errorf("build: create lexicon file: %w", err)
	}
	directoryFile, err := os.Create(dataDir + "/" + config.DirectoryFile)
	if err != nil {
		indexFile.Close()
		lexiconFile.Close()
		return nil, fmt.Errorf("build: create directory file: %w", err)
	}

	b := &Builder{
		indexFile:    indexFile,
		lexiconFile:  lexiconFile,
		directoryFile: directoryFile,
		indexW:        &countingWriter{w: bufio.NewWriter(indexFile)},
		lexiconW:      &countingWriter{w: bufio.NewWriter(lexiconFile)},
		directoryW:    &countingWriter{w: bufio.NewWriter(directoryFile)},
	}

	// Reserved headers, patched in Finalize.
	if err := binfmt.WriteU32(b.lexiconW, 0); err != nil {
		return nil, err
	}
	if err := binfmt.WriteU32(b.directoryW, 0); err != nil {
		return nil, err
	}

	return b, nil
}

// AddTerm consumes one (term, sorted postings) record from the merged
// stream — with termID resolved by the caller from the indexer's
// term↔ID map, since the merged stream itself carries only term strings
// (spec.md §4.5's record shape) — and appends its blocks and
// lexicon/directory records.
func (b *Builder) AddTerm(term string, termID uint32, postings []binfmt.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	if b.totalTerms%config.DirectoryStride == 0 {
		entry := lexicon.DirectoryEntry{Term: term, LexiconOffset: uint64(b.lexiconW.count)}
		if err := lexicon.WriteDirectoryEntry(b.directoryW, entry); err != nil {
			return fmt.Errorf("build: write directory entry for %q: %w", term, err)
		}
		b.totalDirectoryEntries++
	}

	meta := lexicon.TermMetadata{
		Term:        term,
		TermID:      termID,
		DocFreq:     uint32(len(postings)),
		StartOffset: uint64(b.indexW.count),
	}

	numBlocks := (len(postings) + config.BlockSize - 1) / config.BlockSize
	meta.NumBlocks = uint32(numBlocks)
	meta.CompressedDocIDSize = make([]uint64, numBlocks)
	meta.BlockOffsets = make([]uint64, numBlocks)
	meta.BlockMaxima = make([]uint32, numBlocks)

	for i := 0; i < numBlocks; i++ {
		start := i * config.BlockSize
		end := start + config.BlockSize
		if end > len(postings) {
			end = len(postings)
		}
		block := postings[start:end]

		meta.BlockOffsets[i] = uint64(b.indexW.count)
		meta.BlockMaxima[i] = block[len(block)-1].DocID

		docIDs := make([]uint32, len(block))
		freqs := make([]uint32, len(block))
		for j, p := range block {
			docIDs[j] = p.DocID
			freqs[j] = p.Freq
			meta.TotalTermFreq += p.Freq
		}

		encoded := binfmt.EncodeVbyte(docIDs)
		meta.CompressedDocIDSize[i] = uint64(len(encoded))
		if _, err := b.indexW.Write(encoded); err != nil {
			return fmt.Errorf("build: write docID block for %q: %w", term, err)
		}
		for _, f := range freqs {
			if err := binfmt.WriteU32(b.indexW, f); err != nil {
				return fmt.Errorf("build: write freq block for %q: %w", term, err)
			}
		}
	}

	last := postings[len(postings)-1]
	meta.LastDocID = last.DocID
	meta.NumPostingLastBlock = uint32(len(postings) % config.BlockSize)
	if meta.NumPostingLastBlock == 0 {
		meta.NumPostingLastBlock = config.BlockSize
	}

	if err := lexicon.WriteRecord(b.lexiconW, meta); err != nil {
		return fmt.Errorf("build: write lexicon record for %q: %w", term, err)
	}

	b.totalTerms++
	return nil
}

// Finalize flushes all three files and patches the lexicon/directory
// headers with their real counts.
func (b *Builder) Finalize() error {
	if err := b.indexW.w.Flush(); err != nil {
		return fmt.Errorf("build: flush index file: %w", err)
	}
	if err := b.lexiconW.w.Flush(); err != nil {
		return fmt.Errorf("build: flush lexicon file: %w", err)
	}
	if err := b.directoryW.w.Flush(); err != nil {
		return fmt.Errorf("build: flush directory file: %w", err)
	}

	if _, err := b.lexiconFile.Seek(0, 0); err != nil {
		return err
	}
	if err := binfmt.WriteU32(b.lexiconFile, b.totalTerms); err != nil {
		return err
	}

	if _, err := b.directoryFile.Seek(0, 0); err != nil {
		return err
	}
	if err := binfmt.WriteU32(b.directoryFile, b.totalDirectoryEntries); err != nil {
		return err
	}

	if err := b.indexFile.Close(); err != nil {
		return err
	}
	if err := b.lexiconFile.Close(); err != nil {
		return err
	}
	return b.directoryFile.Close()
}
