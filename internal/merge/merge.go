// Package merge implements the k-way external merge that combines every
// scratch batch file into a single, globally term-sorted postings stream
// (spec.md §4.5), grounded on original_source/src/external_sorter.rs's
// merge_sorted_files (a BinaryHeap of per-file cursors keyed by the next
// record's sort key). container/heap (stdlib) stands in for Rust's
// BinaryHeap — no pack example supplies a generic heap library, and the
// teacher itself reaches for stdlib collections wherever Go's stdlib
// already covers the need.
package merge

import (
	"bufio"
	"container/heap"
	"fmt"
	"os"
	"sort"

	"github.com/wizenheimer/marcodex/internal/binfmt"
)

// cursor tracks one open batch file and the record currently at its head.
type cursor struct {
	f       *os.File
	r       *bufio.Reader
	current binfmt.TermPostings
	done    bool
}

func newCursor(path string) (*cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("merge: open %s: %w", path, err)
	}
	c := &cursor{f: f, r: bufio.NewReader(f)}
	if err := c.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

func (c *cursor) advance() error {
	rec, err := binfmt.ReadRecord(c.r)
	if err != nil {
		c.done = true
		return nil
	}
	c.current = rec
	return nil
}

func (c *cursor) close() error {
	return c.f.Close()
}

// cursorHeap orders open cursors by their current record's term string,
// the same lexicographic key the batch spiller sorted each file by.
type cursorHeap []*cursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].current.Term < h[j].current.Term }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Files performs a k-way merge of the batch files at inputPaths (each
// internally term-sorted, per spec.md §4.4) into a single term-sorted
// stream written to outputPath, coalescing duplicate doc frequencies for a
// term that appears in more than one batch. Consumed batch files are
// deleted once the merge completes successfully.
func Files(outputPath string, inputPaths []string) error {
	cursors := make([]*cursor, 0, len(inputPaths))
	defer func() {
		for _, c := range cursors {
			c.close()
		}
	}()

	h := &cursorHeap{}
	for _, path := range inputPaths {
		c, err := newCursor(path)
		if err != nil {
			return err
		}
		cursors = append(cursors, c)
		if !c.done {
			heap.Push(h, c)
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("merge: create %s: %w", outputPath, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for h.Len() > 0 {
		term := (*h)[0].current.Term

		// Accumulate every cursor currently holding this term before
		// emitting, so a term split across multiple batches is written
		// exactly once with combined postings.
		merged := map[uint32]uint32{}
		for h.Len() > 0 && (*h)[0].current.Term == term {
			c := heap.Pop(h).(*cursor)
			for _, p := range c.current.Postings {
				merged[p.DocID] += p.Freq
			}
			if err := c.advance(); err != nil {
				return err
			}
			if !c.done {
				heap.Push(h, c)
			}
		}

		docIDs := make([]uint32, 0, len(merged))
		for id := range merged {
			docIDs = append(docIDs, id)
		}
		sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

		rec := binfmt.TermPostings{Term: term, Postings: make([]binfmt.Posting, len(docIDs))}
		for i, id := range docIDs {
			rec.Postings[i] = binfmt.Posting{DocID: id, Freq: merged[id]}
		}
		if err := binfmt.WriteRecord(w, rec); err != nil {
			return fmt.Errorf("merge: write record for %q: %w", term, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("merge: flush %s: %w", outputPath, err)
	}

	for _, c := range cursors {
		c.close()
	}
	for _, path := range inputPaths {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("merge: remove consumed batch %s: %w", path, err)
		}
	}

	return nil
}
