// Package docmeta persists and reloads the per-document metadata
// (URL, length in tokens) the query processor needs for BM25 scoring and
// result display. It is factored out of both internal/indexer (writer)
// and internal/query (reader) to avoid those two packages importing each
// other.
package docmeta

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/wizenheimer/marcodex/internal/binfmt"
)

// Meta is one document's persisted metadata.
type Meta struct {
	URL    string
	Length uint32
}

// WriteAll writes every document's metadata to path as:
//
//	[u32 count][(docid u32, url_len u32, url bytes, length u32)]*count
//
// in ascending docID order, mirroring the teacher's own
// binary.Write/LittleEndian record style (serialization.go).
func WriteAll(path string, docs map[uint32]Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("docmeta: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	ids := make([]uint32, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := binfmt.WriteU32(w, uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		m := docs[id]
		if err := binfmt.WriteU32(w, id); err != nil {
			return err
		}
		if err := binfmt.WriteString(w, m.URL); err != nil {
			return err
		}
		if err := binfmt.WriteU32(w, m.Length); err != nil {
			return err
		}
	}

	return w.Flush()
}

// ReadAll loads every document's metadata written by WriteAll.
func ReadAll(path string) (map[uint32]Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docmeta: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	count, err := binfmt.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("docmeta: read count: %w", err)
	}

	docs := make(map[uint32]Meta, count)
	for i := uint32(0); i < count; i++ {
		id, err := binfmt.ReadU32(r)
		if err != nil {
			return nil, fmt.Errorf("docmeta: read docID: %w", err)
		}
		url, err := binfmt.ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("docmeta: read url: %w", err)
		}
		length, err := binfmt.ReadU32(r)
		if err != nil {
			return nil, fmt.Errorf("docmeta: read length: %w", err)
		}
		docs[id] = Meta{URL: url, Length: length}
	}

	return docs, nil
}

