// Package config holds the compile-time constants shared by every stage of
// the indexing and query pipeline, mirroring the handful of tunables the
// original inverted-index build exposed as top-level consts.
package config

const (
	// BlockSize is the number of postings grouped into one skippable block
	// on disk.
	BlockSize = 64

	// DirectoryStride controls how often a term gets a sparse directory
	// entry: every DirectoryStride-th term in lexicographic order.
	DirectoryStride = 100

	// BM25K1 is the term-frequency saturation parameter.
	BM25K1 = 1.2

	// BM25B is the document-length normalization parameter.
	BM25B = 0.75

	// DefaultBatchSize is the number of documents accumulated in memory
	// before the indexer spills its postings to a scratch batch file.
	DefaultBatchSize = 10_000

	// TopK is the number of ranked results returned by a query.
	TopK = 10

	// LexiconHeaderSize is the byte size of the total-terms header that
	// prefixes bin_lexicon.data.
	LexiconHeaderSize = 4

	// DirectoryHeaderSize is the byte size of the total-entries header
	// that prefixes bin_directory.data.
	DirectoryHeaderSize = 4
)

// File names used inside the persistent output directory (spec.md §6).
const (
	MergedPostingsFile = "merged_postings.data"
	IndexFile          = "bin_index.data"
	LexiconFile        = "bin_lexicon.data"
	DirectoryFile      = "bin_directory.data"
	DocMetadataFile    = "doc_metadata.data"
)
