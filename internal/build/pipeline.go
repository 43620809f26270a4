package build

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/wizenheimer/marcodex/internal/binfmt"
	"github.com/wizenheimer/marcodex/internal/config"
	"github.com/wizenheimer/marcodex/internal/indexer"
	"github.com/wizenheimer/marcodex/internal/merge"
	"github.com/wizenheimer/marcodex/internal/tokenize"
	"github.com/wizenheimer/marcodex/internal/trec"
)

// Options controls one end-to-end build run (spec.md §6's CLI surface).
type Options struct {
	InputPath  string // gzip-compressed TREC corpus
	DataDir    string // persistent output directory
	ScratchDir string // batch scratch directory
	BatchSize  int
	Stem       bool
	DebugLimit int // 0 = unlimited
}

// Run executes the full pipeline: parse → index → spill → merge → build
// (spec.md §2). It cleans the scratch directory at the start, per spec.md
// §6's "deleted at the start of every build".
func Run(opts Options) error {
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}

	if err := resetDir(opts.ScratchDir); err != nil {
		return fmt.Errorf("build: reset scratch dir: %w", err)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return fmt.Errorf("build: create data dir: %w", err)
	}

	in, err := os.Open(opts.InputPath)
	if err != nil {
		return fmt.Errorf("build: open input: %w", err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("build: open gzip reader: %w", err)
	}
	defer gz.Close()

	ix := indexer.New()
	tokOpts := tokenize.Options{Stem: opts.Stem}
	scanner := trec.NewScanner(gz, tokOpts, opts.DebugLimit)

	var batchPaths []string
	err = scanner.Each(func(doc trec.Document) error {
		ix.Process(doc)
		if ix.BatchDocs() >= opts.BatchSize {
			path, err := ix.Spill(opts.ScratchDir)
			if err != nil {
				return err
			}
			if path != "" {
				batchPaths = append(batchPaths, path)
				slog.Info("spilled batch", slog.String("path", path), slog.Uint64("total_docs", ix.TotalDocs()))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("build: scan input: %w", err)
	}

	// A trailing partial batch that never reached BatchSize is still
	// spilled here. The original pipeline's disk_io::process_gzip_file
	// only spilled on doc_count % BATCH_SIZE == 0, silently dropping any
	// documents in a final undersized batch; this unconditional spill is
	// a deliberate correction (see DESIGN.md).
	if ix.BatchDocs() > 0 {
		path, err := ix.Spill(opts.ScratchDir)
		if err != nil {
			return fmt.Errorf("build: final spill: %w", err)
		}
		if path != "" {
			batchPaths = append(batchPaths, path)
		}
	}

	slog.Info("indexed corpus", slog.Uint64("total_docs", ix.TotalDocs()), slog.Int("batches", len(batchPaths)))

	if err := ix.WriteDocMetadata(filepath.Join(opts.DataDir, config.DocMetadataFile)); err != nil {
		return fmt.Errorf("build: write doc metadata: %w", err)
	}

	mergedPath := filepath.Join(opts.DataDir, config.MergedPostingsFile)
	if len(batchPaths) > 0 {
		if err := merge.Files(mergedPath, batchPaths); err != nil {
			return fmt.Errorf("build: merge batches: %w", err)
		}
	} else if err := touchEmpty(mergedPath); err != nil {
		return err
	}

	if err := buildFromMerged(mergedPath, opts.DataDir, ix); err != nil {
		return fmt.Errorf("build: build index: %w", err)
	}

	slog.Info("build complete", slog.String("data_dir", opts.DataDir))
	return nil
}

// buildFromMerged streams the merged postings file and drives the binary
// index builder, resolving each term's ID via the indexer's in-memory
// term↔ID map (spec.md §4.5's merged records carry only term strings).
func buildFromMerged(mergedPath, dataDir string, ix *indexer.Indexer) error {
	f, err := os.Open(mergedPath)
	if err != nil {
		return fmt.Errorf("open merged postings: %w", err)
	}
	defer f.Close()

	b, err := New(dataDir)
	if err != nil {
		return fmt.Errorf("create builder: %w", err)
	}

	br := bufio.NewReader(f)
	for {
		rec, err := binfmt.ReadRecord(br)
		if err != nil {
			break
		}

		sort.Slice(rec.Postings, func(i, j int) bool { return rec.Postings[i].DocID < rec.Postings[j].DocID })

		termID, ok := ix.TermID(rec.Term)
		if !ok {
			// Defensive: every term in the merged stream was assigned an
			// ID during indexing, by construction of the pipeline above.
			termID = 0
		}

		if err := b.AddTerm(rec.Term, termID, rec.Postings); err != nil {
			return fmt.Errorf("add term %q: %w", rec.Term, err)
		}
	}

	return b.Finalize()
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func touchEmpty(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

