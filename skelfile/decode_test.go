package skelfile

import (
	"encoding/binary"
	"math"
	"testing"
)

type buf struct{ b []byte }

func (w *buf) varint(v uint32) *buf {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.b = append(w.b, b|0x80)
		} else {
			w.b = append(w.b, b)
			break
		}
	}
	return w
}

func (w *buf) u8(v byte) *buf {
	w.b = append(w.b, v)
	return w
}

func (w *buf) bool(v bool) *buf {
	if v {
		return w.u8(1)
	}
	return w.u8(0)
}

func (w *buf) f32(v float32) *buf {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
	w.b = append(w.b, tmp[:]...)
	return w
}

// str encodes a present string (possibly empty) using the length+1 scheme.
func (w *buf) str(s string) *buf {
	w.varint(uint32(len(s) + 1))
	w.b = append(w.b, s...)
	return w
}

// strAbsent encodes the "absent" string sentinel (length 0).
func (w *buf) strAbsent() *buf {
	return w.varint(0)
}

func (w *buf) color(r, g, b, a byte) *buf {
	w.b = append(w.b, r, g, b, a)
	return w
}

// minimalSkel builds the smallest well-formed payload Decode accepts: one
// root bone, no slots, no constraints, no skins, no events, no animations.
func minimalSkel(version string) []byte {
	w := &buf{}
	w.str("deadbeef")   // hash
	w.str(version)      // version
	for i := 0; i < 4; i++ {
		w.f32(0) // bounds
	}
	w.f32(1)      // reference scale
	w.bool(false) // nonessential

	w.varint(0) // string table

	w.varint(1) // bone count
	w.str("root")
	w.f32(0)             // rotation
	w.f32(0).f32(0)      // x, y
	w.f32(1).f32(1)      // scaleX, scaleY
	w.f32(0).f32(0)      // shearX, shearY
	w.u8(0)              // inherit (Normal)
	w.f32(0)             // length
	w.bool(false)        // skinRequired

	w.varint(0) // slot count
	w.varint(0) // constraint count
	w.varint(0) // skin count
	w.varint(0) // event count
	w.varint(0) // animation count
	// no slider trailer entries (slider count is 0)
	return w.b
}

func TestDecodeMinimalRig(t *testing.T) {
	rig, err := Decode(minimalSkel("4.3.00"), 1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rig.Hash != "deadbeef" {
		t.Fatalf("hash: got %q", rig.Hash)
	}
	if len(rig.Bones) != 1 || rig.Bones[0].Name != "root" {
		t.Fatalf("bones: got %+v", rig.Bones)
	}
	if rig.Bones[0].Parent != -1 {
		t.Fatalf("root parent: got %d, want -1", rig.Bones[0].Parent)
	}
	if len(rig.Animations) != 0 {
		t.Fatalf("animations: got %d, want 0", len(rig.Animations))
	}
}

func TestDecodeRejectsNonV4(t *testing.T) {
	_, err := Decode(minimalSkel("3.8.99"), 1)
	if err == nil {
		t.Fatal("expected version error for major version 3")
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	data := minimalSkel("4.3.00")
	_, err := Decode(data[:len(data)-5], 1)
	if err == nil {
		t.Fatal("expected error decoding truncated payload")
	}
}

func TestDecodeTwoBoneChain(t *testing.T) {
	w := &buf{}
	w.str("h")
	w.str("4.1.00")
	for i := 0; i < 4; i++ {
		w.f32(0)
	}
	w.f32(1)
	w.bool(false)
	w.varint(0) // strings

	w.varint(2) // bones
	w.str("root")
	w.f32(0).f32(0).f32(0).f32(1).f32(1).f32(0).f32(0)
	w.u8(0).f32(10).bool(false)

	w.str("child")
	w.varint(0) // parent index 0
	w.f32(0).f32(10).f32(0).f32(1).f32(1).f32(0).f32(0)
	w.u8(0).f32(5).bool(false)

	w.varint(0) // slots
	w.varint(0) // constraints
	w.varint(0) // skins
	w.varint(0) // events
	w.varint(0) // animations

	rig, err := Decode(w.b, 1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rig.Bones) != 2 {
		t.Fatalf("bones: got %d, want 2", len(rig.Bones))
	}
	if rig.Bones[1].Parent != 0 {
		t.Fatalf("child parent: got %d, want 0", rig.Bones[1].Parent)
	}
	if rig.Bones[1].X != 10 {
		t.Fatalf("child x: got %v, want 10", rig.Bones[1].X)
	}
}
