// Package lexicon defines the on-disk record formats for bin_lexicon.data
// and bin_directory.data (spec.md §4.6) and the encode/decode routines
// shared by the binary index builder (the writer) and the query processor
// (the reader), kept in a package of its own so neither of those two
// depends on the other.
package lexicon

import (
	"bufio"
	"fmt"
	"io"

	"github.com/wizenheimer/marcodex/internal/binfmt"
)

// TermMetadata is the full per-term record persisted in bin_lexicon.data.
type TermMetadata struct {
	Term                string
	TermID              uint32
	DocFreq             uint32 // number of postings (documents containing the term)
	TotalTermFreq       uint32 // sum of per-document frequencies
	StartOffset         uint64 // byte offset of this term's first block in bin_index.data
	NumBlocks           uint32
	NumPostingLastBlock uint32
	LastDocID           uint32
	CompressedDocIDSize []uint64 // per-block compressed docID region size, bytes
	BlockOffsets        []uint64 // per-block absolute offset into bin_index.data
	BlockMaxima         []uint32 // per-block maximum (raw, undelta'd) docID
}

// DirectoryEntry is one sparse navigation aid record in bin_directory.data.
type DirectoryEntry struct {
	Term          string
	LexiconOffset uint64 // byte offset into bin_lexicon.data
}

// WriteRecord appends one lexicon record in the format spec.md §4.6
// defines:
//
//	[u32 term_len][term][u32 term_id][u32 doc_freq][u32 total_term_freq]
//	[u64 start_offset][u32 num_blocks][u32 num_posting_last_block]
//	[u32 last_doc_id][u64 x num_blocks sizes][u64 x num_blocks offsets]
//	[u32 x num_blocks maxima]
func WriteRecord(w io.Writer, m TermMetadata) error {
	if err := binfmt.WriteString(w, m.Term); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.TermID); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.DocFreq); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.TotalTermFreq); err != nil {
		return err
	}
	if err := binfmt.WriteU64(w, m.StartOffset); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.NumBlocks); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.NumPostingLastBlock); err != nil {
		return err
	}
	if err := binfmt.WriteU32(w, m.LastDocID); err != nil {
		return err
	}
	for _, v := range m.CompressedDocIDSize {
		if err := binfmt.WriteU64(w, v); err != nil {
			return err
		}
	}
	for _, v := range m.BlockOffsets {
		if err := binfmt.WriteU64(w, v); err != nil {
			return err
		}
	}
	for _, v := range m.BlockMaxima {
		if err := binfmt.WriteU32(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadRecord reads one lexicon record from r, assumed positioned exactly
// at its start.
func ReadRecord(r io.Reader) (TermMetadata, error) {
	var m TermMetadata
	var err error

	if m.Term, err = binfmt.ReadString(r); err != nil {
		return m, err
	}
	if m.TermID, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}
	if m.DocFreq, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}
	if m.TotalTermFreq, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}
	if m.StartOffset, err = binfmt.ReadU64(r); err != nil {
		return m, err
	}
	if m.NumBlocks, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}
	if m.NumPostingLastBlock, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}
	if m.LastDocID, err = binfmt.ReadU32(r); err != nil {
		return m, err
	}

	m.CompressedDocIDSize = make([]uint64, m.NumBlocks)
	for i := range m.CompressedDocIDSize {
		if m.CompressedDocIDSize[i], err = binfmt.ReadU64(r); err != nil {
			return m, err
		}
	}
	m.BlockOffsets = make([]uint64, m.NumBlocks)
	for i := range m.BlockOffsets {
		if m.BlockOffsets[i], err = binfmt.ReadU64(r); err != nil {
			return m, err
		}
	}
	m.BlockMaxima = make([]uint32, m.NumBlocks)
	for i := range m.BlockMaxima {
		if m.BlockMaxima[i], err = binfmt.ReadU32(r); err != nil {
			return m, err
		}
	}

	return m, nil
}

// RecordSize returns the exact byte size WriteRecord would emit for m, so
// a reader can skip a record without re-parsing its variable-length tail.
func RecordSize(m TermMetadata) int64 {
	return int64(4+len(m.Term)) + 4 + 4 + 4 + 8 + 4 + 4 + 4 +
		8*int64(len(m.CompressedDocIDSize)) +
		8*int64(len(m.BlockOffsets)) +
		4*int64(len(m.BlockMaxima))
}

// WriteDirectoryEntry appends one directory entry: [u32 term_len][term][u64 lexicon_offset].
func WriteDirectoryEntry(w io.Writer, e DirectoryEntry) error {
	if err := binfmt.WriteString(w, e.Term); err != nil {
		return err
	}
	return binfmt.WriteU64(w, e.LexiconOffset)
}

// ReadDirectoryEntry reads one entry written by WriteDirectoryEntry.
func ReadDirectoryEntry(r io.Reader) (DirectoryEntry, error) {
	var e DirectoryEntry
	var err error
	if e.Term, err = binfmt.ReadString(r); err != nil {
		return e, err
	}
	if e.LexiconOffset, err = binfmt.ReadU64(r); err != nil {
		return e, err
	}
	return e, nil
}

// ReadAllDirectoryEntries loads every entry from a bin_directory.data file
// positioned at its start (past the u32 header), which the query processor
// keeps fully in memory given its sparsity (spec.md §4.7).
func ReadAllDirectoryEntries(r *bufio.Reader, count uint32) ([]DirectoryEntry, error) {
	entries := make([]DirectoryEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := ReadDirectoryEntry(r)
		if err != nil {
			return nil, fmt.Errorf("lexicon: read directory entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
