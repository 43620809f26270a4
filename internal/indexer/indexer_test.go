package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/wizenheimer/marcodex/internal/binfmt"
	"github.com/wizenheimer/marcodex/internal/trec"
)

func doc(id uint32, url string, tokens ...string) trec.Document {
	return trec.Document{DocID: id, URL: url, Tokens: tokens}
}

func TestProcess_TracksDocMetadataAndTotalDocs(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "alpha", "beta"))
	ix.Process(doc(1, "http://b", "beta", "gamma"))

	if ix.TotalDocs() != 2 {
		t.Errorf("TotalDocs() = %d, want 2", ix.TotalDocs())
	}
	if ix.BatchDocs() != 2 {
		t.Errorf("BatchDocs() = %d, want 2", ix.BatchDocs())
	}
}

func TestProcess_AssignsStableTermIDs(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "alpha", "beta", "alpha"))

	id1, ok := ix.TermID("alpha")
	if !ok {
		t.Fatal("expected alpha to have a term ID")
	}
	ix.Process(doc(1, "http://b", "alpha"))
	id2, _ := ix.TermID("alpha")
	if id1 != id2 {
		t.Errorf("term ID for alpha changed across documents: %d != %d", id1, id2)
	}

	if _, ok := ix.TermID("nonexistent"); ok {
		t.Error("expected unseen term to have no ID")
	}
}

func TestSpill_EmptyBatchIsNoOp(t *testing.T) {
	ix := New()
	path, err := ix.Spill(t.TempDir())
	if err != nil {
		t.Fatalf("Spill: %v", err)
	}
	if path != "" {
		t.Errorf("Spill on empty batch returned path %q, want empty", path)
	}
}

func TestSpill_WritesSortedRecords(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "zebra", "alpha"))
	ix.Process(doc(1, "http://b", "alpha", "middle"))

	dir := t.TempDir()
	path, err := ix.Spill(dir)
	if err != nil {
		t.Fatalf("Spill: %v", err)
	}
	if path == "" {
		t.Fatal("expected non-empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open spilled file: %v", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var terms []string
	for {
		rec, err := binfmt.ReadRecord(br)
		if err != nil {
			break
		}
		terms = append(terms, rec.Term)
	}

	want := []string{"alpha", "middle", "zebra"}
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q (not lexicographically sorted)", i, terms[i], want[i])
		}
	}
}

func TestSpill_AggregatesFrequencyPerDoc(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "alpha", "alpha", "alpha"))

	dir := t.TempDir()
	path, _ := ix.Spill(dir)

	f, _ := os.Open(path)
	defer f.Close()
	rec, err := binfmt.ReadRecord(bufio.NewReader(f))
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec.Term != "alpha" {
		t.Fatalf("term = %q, want alpha", rec.Term)
	}
	if len(rec.Postings) != 1 || rec.Postings[0].DocID != 0 || rec.Postings[0].Freq != 3 {
		t.Errorf("postings = %+v, want [{0 3}]", rec.Postings)
	}
}

func TestSpill_ClearsBatchState(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "alpha"))
	dir := t.TempDir()
	if _, err := ix.Spill(dir); err != nil {
		t.Fatalf("Spill: %v", err)
	}
	if ix.BatchDocs() != 0 {
		t.Errorf("BatchDocs() after spill = %d, want 0", ix.BatchDocs())
	}
	// TotalDocs (corpus-wide) must survive the spill.
	if ix.TotalDocs() != 1 {
		t.Errorf("TotalDocs() after spill = %d, want 1", ix.TotalDocs())
	}
}

func TestSpill_SequentialBatchFilesDoNotCollide(t *testing.T) {
	ix := New()
	dir := t.TempDir()

	ix.Process(doc(0, "http://a", "alpha"))
	p1, _ := ix.Spill(dir)

	ix.Process(doc(1, "http://b", "beta"))
	p2, _ := ix.Spill(dir)

	if p1 == p2 {
		t.Errorf("sequential spills reused the same path: %q", p1)
	}
	if _, err := os.Stat(p1); err != nil {
		t.Errorf("first batch file missing: %v", err)
	}
	if _, err := os.Stat(p2); err != nil {
		t.Errorf("second batch file missing: %v", err)
	}
}

func TestWriteDocMetadata(t *testing.T) {
	ix := New()
	ix.Process(doc(0, "http://a", "alpha", "beta"))
	ix.Process(doc(1, "http://b", "gamma"))

	path := filepath.Join(t.TempDir(), "doc_metadata.data")
	if err := ix.WriteDocMetadata(path); err != nil {
		t.Fatalf("WriteDocMetadata: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("doc metadata file missing: %v", err)
	}
}
