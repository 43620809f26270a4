// Package binfmt implements the low-level binary encodings shared by every
// stage that touches disk: the length-prefixed record format used by batch
// and merged postings files, and the stream-vbyte-style codec used by the
// blocked on-disk index. Every routine follows the teacher's own
// binary.Write/binary.LittleEndian idiom (serialization.go) rather than a
// generic serialization library.
package binfmt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Posting is one (docID, term frequency) pair. Within a posting list,
// Postings are always kept sorted by DocID ascending (spec.md §3).
type Posting struct {
	DocID uint32
	Freq  uint32
}

// WriteString writes a length-prefixed UTF-8 string: [u32 len][bytes].
func WriteString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a string written by WriteString.
func ReadString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteU32 writes a single little-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// ReadU32 reads a single little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// WriteU64 writes a single little-endian uint64.
func WriteU64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// ReadU64 reads a single little-endian uint64.
func ReadU64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// TermPostings is one record of the batch/merged postings stream: a term
// string paired with its complete posting list (spec.md §4.4, §4.5).
type TermPostings struct {
	Term     string
	Postings []Posting
}

// WriteRecord appends one length-prefixed record to w:
//
//	[u64 total_len][u32 term_len][term bytes][u32 count][(docid u32, freq u32)]*count
//
// total_len covers everything after the u64 itself, so a reader can skip a
// record it doesn't need without decoding its postings.
func WriteRecord(w io.Writer, rec TermPostings) error {
	payload := make([]byte, 0, 8+len(rec.Term)+8*len(rec.Postings))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(rec.Term)))
	payload = append(payload, rec.Term...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(rec.Postings)))
	for _, p := range rec.Postings {
		payload = binary.LittleEndian.AppendUint32(payload, p.DocID)
		payload = binary.LittleEndian.AppendUint32(payload, p.Freq)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadRecord reads one record written by WriteRecord. It returns io.EOF
// (unwrapped) when the stream is exhausted at a record boundary.
func ReadRecord(r *bufio.Reader) (TermPostings, error) {
	var rec TermPostings

	totalLen, err := ReadU64(r)
	if err != nil {
		return rec, err
	}

	payload := make([]byte, totalLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return rec, fmt.Errorf("binfmt: short record: %w", err)
	}

	if len(payload) < 4 {
		return rec, fmt.Errorf("binfmt: record too short for term length")
	}
	termLen := binary.LittleEndian.Uint32(payload[0:4])
	payload = payload[4:]

	if uint32(len(payload)) < termLen {
		return rec, fmt.Errorf("binfmt: record too short for term bytes")
	}
	rec.Term = string(payload[:termLen])
	payload = payload[termLen:]

	if len(payload) < 4 {
		return rec, fmt.Errorf("binfmt: record too short for posting count")
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	payload = payload[4:]

	if uint32(len(payload)) < count*8 {
		return rec, fmt.Errorf("binfmt: record too short for %d postings", count)
	}
	rec.Postings = make([]Posting, count)
	for i := range rec.Postings {
		rec.Postings[i] = Posting{
			DocID: binary.LittleEndian.Uint32(payload[0:4]),
			Freq:  binary.LittleEndian.Uint32(payload[4:8]),
		}
		payload = payload[8:]
	}

	return rec, nil
}
