package binfmt

import "fmt"

// EncodeVbyte packs nums into a stream-vbyte-style block: a bank of control
// bytes (2 bits per number, encoding how many of the low 1-4 bytes of that
// number are significant) followed by the packed data bytes themselves,
// in order. This mirrors the layout the original index builder reached for
// the `stream_vbyte` crate to produce (spec.md §4.6) — no Go package in the
// example pack offers the same codec, so the format is hand-written here.
func EncodeVbyte(nums []uint32) []byte {
	controlBytes := (len(nums) + 3) / 4
	out := make([]byte, controlBytes)

	for i, n := range nums {
		length, bytes := vbyteLength(n)

		shift := uint((i % 4) * 2)
		out[i/4] |= byte(length-1) << shift

		out = append(out, bytes...)
	}

	return out
}

// DecodeVbyte unpacks the first n numbers from a block produced by
// EncodeVbyte.
func DecodeVbyte(data []byte, n int) ([]uint32, error) {
	controlBytes := (n + 3) / 4
	if len(data) < controlBytes {
		return nil, fmt.Errorf("binfmt: vbyte block shorter than control bank")
	}

	nums := make([]uint32, n)
	pos := controlBytes

	for i := 0; i < n; i++ {
		shift := uint((i % 4) * 2)
		length := int((data[i/4]>>shift)&0x3) + 1

		if pos+length > len(data) {
			return nil, fmt.Errorf("binfmt: vbyte block truncated at number %d", i)
		}

		var v uint32
		for b := 0; b < length; b++ {
			v |= uint32(data[pos+b]) << (8 * uint(b))
		}
		nums[i] = v
		pos += length
	}

	return nums, nil
}

// vbyteLength returns how many of n's low bytes are significant (1-4) and
// those bytes themselves, little-endian.
func vbyteLength(n uint32) (int, []byte) {
	switch {
	case n <= 0xFF:
		return 1, []byte{byte(n)}
	case n <= 0xFFFF:
		return 2, []byte{byte(n), byte(n >> 8)}
	case n <= 0xFFFFFF:
		return 3, []byte{byte(n), byte(n >> 8), byte(n >> 16)}
	default:
		return 4, []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	}
}
