package mcrelay

import (
	"bytes"
	"testing"
)

func TestVarIntWrittenSize(t *testing.T) {
	cases := []struct {
		n    int32
		size int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16_383, 2},
		{16_384, 3},
		{2_097_151, 3},
		{-1, 5},
	}
	for _, c := range cases {
		if got := VarIntWrittenSize(c.n); got != c.size {
			t.Errorf("VarIntWrittenSize(%d) = %d, want %d", c.n, got, c.size)
		}
	}
}

func TestPutVarIntGolden(t *testing.T) {
	cases := []struct {
		n    int32
		want []byte
	}{
		{0x00, []byte{0x00}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0xff, []byte{0xff, 0x01}},
		{-1, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
		{2147483647, []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
	}
	for _, c := range cases {
		var buf [MaxVarIntLen]byte
		n := PutVarInt(buf[:], c.n)
		got := buf[:n]
		if !bytes.Equal(got, c.want) {
			t.Errorf("PutVarInt(%d) = % x, want % x", c.n, got, c.want)
		}
		if n != VarIntWrittenSize(c.n) {
			t.Errorf("PutVarInt(%d) wrote %d bytes, VarIntWrittenSize says %d", c.n, n, VarIntWrittenSize(c.n))
		}
	}
}

func TestDecodeVarIntGolden(t *testing.T) {
	cases := []struct {
		in   []byte
		want int32
		n    int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xff, 0x01}, 255, 2},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, -1, 5},
	}
	for _, c := range cases {
		got, n, err := DecodeVarInt(c.in)
		if err != nil {
			t.Fatalf("DecodeVarInt(% x) error: %v", c.in, err)
		}
		if got != c.want || n != c.n {
			t.Errorf("DecodeVarInt(% x) = (%d, %d), want (%d, %d)", c.in, got, n, c.want, c.n)
		}
	}
}

func TestDecodeVarIntIncomplete(t *testing.T) {
	_, _, err := DecodeVarInt([]byte{0x80})
	if err != ErrVarIntIncomplete {
		t.Fatalf("expected ErrVarIntIncomplete, got %v", err)
	}
	_, _, err = DecodeVarInt(nil)
	if err != ErrVarIntIncomplete {
		t.Fatalf("expected ErrVarIntIncomplete for empty buffer, got %v", err)
	}
}

func TestDecodeVarIntTooLarge(t *testing.T) {
	_, _, err := DecodeVarInt([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	if err != ErrVarIntTooLarge {
		t.Fatalf("expected ErrVarIntTooLarge, got %v", err)
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	samples := []int32{0, 1, -1, 127, 128, 255, 256, 16383, 16384, 2097151,
		2097152, 1 << 28, -(1 << 20), 2147483647, -2147483648}
	for _, n := range samples {
		buf := AppendVarInt(nil, n)
		got, consumed, err := DecodeVarInt(buf)
		if err != nil {
			t.Fatalf("round trip %d: decode error %v", n, err)
		}
		if consumed != len(buf) {
			t.Errorf("round trip %d: consumed %d, encoded length %d", n, consumed, len(buf))
		}
		if got != n {
			t.Errorf("round trip %d: got %d", n, got)
		}
	}
}
