package binfmt

import (
	"reflect"
	"testing"
)

func TestVbyte_RoundTrip_Small(t *testing.T) {
	nums := []uint32{0, 1, 255, 256, 65535, 65536, 16777215, 16777216, 4294967295}
	enc := EncodeVbyte(nums)
	got, err := DecodeVbyte(enc, len(nums))
	if err != nil {
		t.Fatalf("DecodeVbyte: %v", err)
	}
	if !reflect.DeepEqual(got, nums) {
		t.Errorf("round trip = %v, want %v", got, nums)
	}
}

func TestVbyte_RoundTrip_BlockBoundary(t *testing.T) {
	// A 64-element block (config.BlockSize) where every control byte bank
	// quadrant is exercised, including the partial final bank when the
	// count isn't a multiple of 4.
	for _, n := range []int{1, 2, 3, 4, 5, 63, 64, 65} {
		nums := make([]uint32, n)
		for i := range nums {
			nums[i] = uint32(i * 1000)
		}
		enc := EncodeVbyte(nums)
		got, err := DecodeVbyte(enc, n)
		if err != nil {
			t.Fatalf("n=%d: DecodeVbyte: %v", n, err)
		}
		if !reflect.DeepEqual(got, nums) {
			t.Errorf("n=%d: round trip = %v, want %v", n, got, nums)
		}
	}
}

func TestVbyte_EmptyBlock(t *testing.T) {
	enc := EncodeVbyte(nil)
	got, err := DecodeVbyte(enc, 0)
	if err != nil {
		t.Fatalf("DecodeVbyte: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestVbyte_ControlBankSize(t *testing.T) {
	// 4 numbers must pack into exactly 1 control byte plus their data bytes.
	nums := []uint32{1, 2, 3, 4}
	enc := EncodeVbyte(nums)
	wantLen := 1 + 4 // 1 control byte + 4 one-byte values
	if len(enc) != wantLen {
		t.Errorf("len(enc) = %d, want %d", len(enc), wantLen)
	}
}

func TestVbyte_TruncatedBlockErrors(t *testing.T) {
	enc := EncodeVbyte([]uint32{1, 70000, 3, 4})
	_, err := DecodeVbyte(enc[:len(enc)-1], 4)
	if err == nil {
		t.Error("expected error decoding truncated block")
	}
}

func TestVbyteLength_Thresholds(t *testing.T) {
	cases := []struct {
		n      uint32
		length int
	}{
		{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {65536, 3},
		{16777215, 3}, {16777216, 4}, {4294967295, 4},
	}
	for _, c := range cases {
		length, bytes := vbyteLength(c.n)
		if length != c.length {
			t.Errorf("vbyteLength(%d) length = %d, want %d", c.n, length, c.length)
		}
		if len(bytes) != c.length {
			t.Errorf("vbyteLength(%d) len(bytes) = %d, want %d", c.n, len(bytes), c.length)
		}
	}
}
