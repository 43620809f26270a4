package merge

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/wizenheimer/marcodex/internal/binfmt"
)

func writeBatch(t *testing.T, dir, name string, recs []binfmt.TermPostings) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, r := range recs {
		if err := binfmt.WriteRecord(w, r); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string) []binfmt.TermPostings {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open merged output: %v", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	var recs []binfmt.TermPostings
	for {
		rec, err := binfmt.ReadRecord(br)
		if err != nil {
			break
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestFiles_MergesAndSortsAcrossBatches(t *testing.T) {
	dir := t.TempDir()

	b1 := writeBatch(t, dir, "batch_0000.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 0, Freq: 1}}},
		{Term: "gamma", Postings: []binfmt.Posting{{DocID: 0, Freq: 2}}},
	})
	b2 := writeBatch(t, dir, "batch_0001.data", []binfmt.TermPostings{
		{Term: "beta", Postings: []binfmt.Posting{{DocID: 1, Freq: 1}}},
		{Term: "gamma", Postings: []binfmt.Posting{{DocID: 2, Freq: 3}}},
	})

	out := filepath.Join(dir, "merged_postings.data")
	if err := Files(out, []string{b1, b2}); err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := readAll(t, out)
	wantTerms := []string{"alpha", "beta", "gamma"}
	if len(got) != len(wantTerms) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(wantTerms), got)
	}
	for i, term := range wantTerms {
		if got[i].Term != term {
			t.Errorf("record %d term = %q, want %q (not globally sorted)", i, got[i].Term, term)
		}
	}
}

func TestFiles_CoalescesSplitTermAcrossBatches(t *testing.T) {
	dir := t.TempDir()

	b1 := writeBatch(t, dir, "batch_0000.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 0, Freq: 2}}},
	})
	b2 := writeBatch(t, dir, "batch_0001.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 1, Freq: 5}}},
	})

	out := filepath.Join(dir, "merged_postings.data")
	if err := Files(out, []string{b1, b2}); err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := readAll(t, out)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 coalesced record: %+v", len(got), got)
	}
	if len(got[0].Postings) != 2 {
		t.Fatalf("postings = %+v, want 2 entries", got[0].Postings)
	}
	for i := 1; i < len(got[0].Postings); i++ {
		if got[0].Postings[i].DocID <= got[0].Postings[i-1].DocID {
			t.Errorf("postings not sorted by docID ascending: %+v", got[0].Postings)
		}
	}
}

func TestFiles_SumsFrequencyWhenSameDocSplitAcrossBatches(t *testing.T) {
	dir := t.TempDir()

	b1 := writeBatch(t, dir, "batch_0000.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 9, Freq: 2}}},
	})
	b2 := writeBatch(t, dir, "batch_0001.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 9, Freq: 3}}},
	})

	out := filepath.Join(dir, "merged_postings.data")
	if err := Files(out, []string{b1, b2}); err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := readAll(t, out)
	if len(got) != 1 || len(got[0].Postings) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Postings[0].Freq != 5 {
		t.Errorf("freq = %d, want 5 (summed across batches)", got[0].Postings[0].Freq)
	}
}

func TestFiles_DeletesConsumedBatchFiles(t *testing.T) {
	dir := t.TempDir()
	b1 := writeBatch(t, dir, "batch_0000.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 0, Freq: 1}}},
	})

	out := filepath.Join(dir, "merged_postings.data")
	if err := Files(out, []string{b1}); err != nil {
		t.Fatalf("Files: %v", err)
	}

	if _, err := os.Stat(b1); !os.IsNotExist(err) {
		t.Errorf("batch file %s should have been deleted after merge", b1)
	}
}

func TestFiles_SingleInputPassesThrough(t *testing.T) {
	dir := t.TempDir()
	b1 := writeBatch(t, dir, "batch_0000.data", []binfmt.TermPostings{
		{Term: "alpha", Postings: []binfmt.Posting{{DocID: 0, Freq: 1}, {DocID: 1, Freq: 2}}},
		{Term: "zeta", Postings: []binfmt.Posting{{DocID: 1, Freq: 1}}},
	})

	out := filepath.Join(dir, "merged_postings.data")
	if err := Files(out, []string{b1}); err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := readAll(t, out)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
}
