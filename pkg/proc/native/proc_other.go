//go:build !linux

package native

import (
	"runtime"

	"github.com/dle9/seer/pkg/logflags"
	"github.com/dle9/seer/pkg/proc"
)

// Reading another process' memory is only implemented on Linux. The other
// platforms get stubs that go through the motions and succeed without
// touching the target, mirroring what the Linux scan reports for a target
// it cannot read.

// Attach records the target without suspending it.
func Attach(pid int) (*Process, error) {
	return &Process{pid: pid}, nil
}

// Detach does nothing, Attach never suspended the target.
func (p *Process) Detach() error {
	return nil
}

// Scan reports an empty scan.
func (p *Process) Scan(emit func(proc.ExtractedString)) (*proc.Report, error) {
	logflags.ScannerLogger().Infof("memory scanning is not implemented on %s, skipping pid %d", runtime.GOOS, p.pid)
	return &proc.Report{}, nil
}

// MemoryMap returns an empty mapping table.
func (p *Process) MemoryMap() ([]proc.MemoryRegion, error) {
	return nil, nil
}
