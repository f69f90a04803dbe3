// Package skelfile decodes the binary .skel export format into a
// spine2d.RigDescription (spec §4.2). It has no dependency on spine2d's
// mutable pose state: a decode call is a pure function from bytes to an
// immutable rig.
package skelfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is a byte-cursor reader over a .skel payload, modeled on
// gazed-vu/load/iqm.go's scratch-state decode style: a small function per
// primitive type over an explicit position, no io.Reader wrapping.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) offset() int64 { return int64(c.pos) }

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.data) {
		return fmt.Errorf("unexpected EOF at offset %d, need %d more bytes", c.pos, n)
	}
	return nil
}

func (c *cursor) u8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) boolean() (bool, error) {
	b, err := c.u8()
	return b != 0, err
}

func (c *cursor) i32() (int32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(c.data[c.pos:]))
	c.pos += 4
	return v, nil
}

func (c *cursor) f32() (float32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return math.Float32frombits(bits), nil
}

func (c *cursor) scaledF32(scale float32) (float32, error) {
	v, err := c.f32()
	return v * scale, err
}

// varint reads an unsigned LEB128-style varint, 5 groups of 7 bits,
// little-endian group order, high bit of each byte = "more follows"
// (spec §4.2).
func (c *cursor) varint() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := c.u8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return result, fmt.Errorf("varint too long at offset %d", c.pos)
}

// zigzag reads a zig-zag encoded signed varint.
func (c *cursor) zigzag() (int32, error) {
	u, err := c.varint()
	if err != nil {
		return 0, err
	}
	return int32(u>>1) ^ -int32(u&1), nil
}

// str reads a length-prefixed UTF-8 string; a length of 0 means "absent",
// returned as ("", false). A length of 1 means empty string.
func (c *cursor) str() (string, bool, error) {
	n, err := c.varint()
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", false, nil
	}
	if n == 1 {
		return "", true, nil
	}
	byteLen := int(n) - 1
	if err := c.need(byteLen); err != nil {
		return "", false, err
	}
	b := c.data[c.pos : c.pos+byteLen]
	c.pos += byteLen
	return string(b), true, nil
}

// color reads an RGBA color as four bytes scaled by 1/255 (spec §4.2).
func (c *cursor) color() ([4]float32, error) {
	var out [4]float32
	for i := 0; i < 4; i++ {
		b, err := c.u8()
		if err != nil {
			return out, err
		}
		out[i] = float32(b) / 255
	}
	return out, nil
}

// stringRef reads a string-table reference varint: 0 means absent, n>0
// indexes table[n-1].
func (c *cursor) stringRef(table []string) (string, bool, error) {
	idx, err := c.varint()
	if err != nil {
		return "", false, err
	}
	if idx == 0 {
		return "", false, nil
	}
	i := int(idx) - 1
	if i < 0 || i >= len(table) {
		return "", false, fmt.Errorf("string table reference %d out of range (table has %d entries) at offset %d", idx, len(table), c.pos)
	}
	return table[i], true, nil
}
