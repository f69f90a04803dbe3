package skelfile

import "testing"

func varintBytes(values []uint32) []byte {
	var out []byte
	for _, v := range values {
		for {
			b := byte(v & 0x7f)
			v >>= 7
			if v != 0 {
				out = append(out, b|0x80)
			} else {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

func TestCursorVarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 16384, 1 << 28}
	c := newCursor(varintBytes(values))
	for _, want := range values {
		got, err := c.varint()
		if err != nil {
			t.Fatalf("varint: %v", err)
		}
		if got != want {
			t.Fatalf("varint: got %d, want %d", got, want)
		}
	}
}

func TestCursorZigzag(t *testing.T) {
	cases := []int32{0, -1, 1, -2, 2, -64, 2147483647}
	for _, want := range cases {
		u := uint32(want<<1) ^ uint32(want>>31)
		c := newCursor(varintBytes([]uint32{u}))
		got, err := c.zigzag()
		if err != nil {
			t.Fatalf("zigzag: %v", err)
		}
		if got != want {
			t.Fatalf("zigzag: got %d, want %d", got, want)
		}
	}
}

func TestCursorStr(t *testing.T) {
	var data []byte
	data = append(data, varintBytes([]uint32{0})...) // absent
	data = append(data, varintBytes([]uint32{1})...) // empty
	hello := []byte("hello")
	data = append(data, varintBytes([]uint32{uint32(len(hello) + 1)})...)
	data = append(data, hello...)

	c := newCursor(data)

	s, ok, err := c.str()
	if err != nil || ok || s != "" {
		t.Fatalf("absent string: got (%q, %v), err %v", s, ok, err)
	}
	s, ok, err = c.str()
	if err != nil || !ok || s != "" {
		t.Fatalf("empty string: got (%q, %v), err %v", s, ok, err)
	}
	s, ok, err = c.str()
	if err != nil || !ok || s != "hello" {
		t.Fatalf("string: got (%q, %v), err %v", s, ok, err)
	}
}

func TestCursorColor(t *testing.T) {
	c := newCursor([]byte{255, 128, 0, 64})
	col, err := c.color()
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	want := [4]float32{1, 128.0 / 255, 0, 64.0 / 255}
	if col != want {
		t.Fatalf("color: got %v, want %v", col, want)
	}
}

func TestCursorStringRef(t *testing.T) {
	table := []string{"a", "b", "c"}
	c := newCursor(varintBytes([]uint32{0, 2}))
	s, ok, err := c.stringRef(table)
	if err != nil || ok || s != "" {
		t.Fatalf("ref 0: got (%q, %v), err %v", s, ok, err)
	}
	s, ok, err = c.stringRef(table)
	if err != nil || !ok || s != "b" {
		t.Fatalf("ref 2: got (%q, %v), err %v", s, ok, err)
	}
}

func TestCursorF32BigEndian(t *testing.T) {
	// IEEE-754 1.0 in big-endian bytes.
	c := newCursor([]byte{0x3f, 0x80, 0x00, 0x00})
	v, err := c.f32()
	if err != nil {
		t.Fatalf("f32: %v", err)
	}
	if v != 1.0 {
		t.Fatalf("f32: got %v, want 1.0", v)
	}
}

func TestCursorNeedEOF(t *testing.T) {
	c := newCursor([]byte{1, 2})
	if _, err := c.i32(); err == nil {
		t.Fatal("expected EOF error reading i32 from 2 bytes")
	}
}
