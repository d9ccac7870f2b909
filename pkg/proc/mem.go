package proc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of the target's 64-bit address space.
type MemoryReader interface {
	// ReadMemory is just like io.ReaderAt.ReadAt.
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// Scalar is the set of types that may be decoded directly from target
// memory: fixed size numeric types whose value is fully determined by their
// bytes. Pointer-bearing or variable size types never qualify, so a typed
// read can not fabricate references into the inspected process.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ReadScalar reads one little-endian value of type T at addr.
func ReadScalar[T Scalar](mem MemoryReader, addr uint64) (T, error) {
	v, err := ReadScalars[T](mem, addr, 1)
	if err != nil {
		var zero T
		return zero, err
	}
	return v[0], nil
}

// ReadScalars reads n consecutive little-endian values of type T starting at
// addr. The conversion from raw bytes to typed values happens here and only
// here; everything above this call deals in values, not target memory.
func ReadScalars[T Scalar](mem MemoryReader, addr uint64, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid element count %d", n)
	}
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}
	size := binary.Size(out)
	if size < 0 {
		return nil, fmt.Errorf("type %T has no fixed size", out[0])
	}
	buf := make([]byte, size)
	nr, err := mem.ReadMemory(buf, addr)
	if err != nil {
		return nil, err
	}
	if nr != size {
		return nil, fmt.Errorf("short read: %d of %d bytes at %#x", nr, size, addr)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}
