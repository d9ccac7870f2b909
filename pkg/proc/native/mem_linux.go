package native

import (
	"fmt"
	"io"
	"os"

	"github.com/dle9/seer/pkg/logflags"
	"github.com/dle9/seer/pkg/proc"
)

type memoryCloser interface {
	proc.MemoryReader
	io.Closer
}

// openMemory returns the best available reader for the target's memory. The
// proc mem file is preferred since it works on every architecture; when it
// can not be opened (hidepid mounts and similarly restricted /proc setups)
// reads go through process_vm_readv instead. The target must already be
// ptrace-stopped in either case.
func (p *Process) openMemory() memoryCloser {
	mf, err := openMemFile(p.pid)
	if err != nil {
		if logflags.Mem() {
			logflags.MemLogger().Debugf("could not open mem file for pid %d (%v), falling back to process_vm_readv", p.pid, err)
		}
		return &vmMemory{pid: p.pid}
	}
	return mf
}

// memFile reads target memory through /proc/<pid>/mem. The file is indexed
// by absolute virtual address, so a region's bytes live at offset
// region.Start. One descriptor serves the whole scan.
type memFile struct {
	f *os.File
}

func openMemFile(pid int) (*memFile, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, err
	}
	return &memFile{f: f}, nil
}

func (m *memFile) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	// Addresses above the kernel split do not fit pread's signed offset;
	// such reads fail like any other unreadable range and the region is
	// skipped.
	return m.f.ReadAt(buf, int64(addr))
}

func (m *memFile) Close() error {
	return m.f.Close()
}

// vmMemory reads target memory with the process_vm_readv syscall.
type vmMemory struct {
	pid int
}

func (m *vmMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	return processVmRead(m.pid, uintptr(addr), buf)
}

func (m *vmMemory) Close() error {
	return nil
}
