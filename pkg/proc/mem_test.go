package proc

import (
	"encoding/binary"
	"math"
	"testing"
)

func scalarImage() *bufferMemory {
	mem := &bufferMemory{base: 0x2000, data: make([]byte, 64)}
	binary.LittleEndian.PutUint32(mem.data[0:], 0xdeadbeef)
	binary.LittleEndian.PutUint64(mem.data[8:], math.Float64bits(3.5))
	binary.LittleEndian.PutUint16(mem.data[16:], 0xfffe) // -2 as int16
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(mem.data[24+2*i:], uint16(i+1))
	}
	return mem
}

func TestReadScalar(t *testing.T) {
	mem := scalarImage()

	u32, err := ReadScalar[uint32](mem, 0x2000)
	assertNoError(err, t, "ReadScalar[uint32]")
	if u32 != 0xdeadbeef {
		t.Errorf("expected 0xdeadbeef, got %#x", u32)
	}

	f64, err := ReadScalar[float64](mem, 0x2008)
	assertNoError(err, t, "ReadScalar[float64]")
	if f64 != 3.5 {
		t.Errorf("expected 3.5, got %v", f64)
	}

	i16, err := ReadScalar[int16](mem, 0x2010)
	assertNoError(err, t, "ReadScalar[int16]")
	if i16 != -2 {
		t.Errorf("expected -2, got %d", i16)
	}

	b, err := ReadScalar[uint8](mem, 0x2003)
	assertNoError(err, t, "ReadScalar[uint8]")
	if b != 0xde {
		t.Errorf("expected the high byte of the little-endian word, got %#x", b)
	}
}

func TestReadScalars(t *testing.T) {
	mem := scalarImage()

	vals, err := ReadScalars[uint16](mem, 0x2018, 4)
	assertNoError(err, t, "ReadScalars[uint16]")
	for i, v := range vals {
		if v != uint16(i+1) {
			t.Errorf("element %d: expected %d, got %d", i, i+1, v)
		}
	}

	empty, err := ReadScalars[uint64](mem, 0x2000, 0)
	assertNoError(err, t, "ReadScalars with count 0")
	if len(empty) != 0 {
		t.Errorf("expected no elements, got %v", empty)
	}

	if _, err := ReadScalars[uint32](mem, 0x2000, -1); err == nil {
		t.Errorf("expected an error for a negative count")
	}
}

func TestReadScalarFailurePropagates(t *testing.T) {
	mem := scalarImage()
	if _, err := ReadScalar[uint64](mem, 0x9000); err == nil {
		t.Errorf("expected an error reading outside the image")
	}
}
