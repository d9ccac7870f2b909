package native

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"time"

	sys "golang.org/x/sys/unix"

	"github.com/dle9/seer/pkg/logflags"
	"github.com/dle9/seer/pkg/proc"
	"github.com/dle9/seer/pkg/proc/linutil"
)

// Process statuses
const (
	statusSleeping  = 'S'
	statusRunning   = 'R'
	statusTraceStop = 't'
	statusZombie    = 'Z'

	// Kernel 2.6 has TraceStop as T, on 3.x+ kernels T means job control
	// stop instead.
	statusTraceStopT = 'T'
)

// Attach suspends the process with the given PID and prepares it for a
// memory scan. On success the target stays fully stopped until Detach, so
// every region read observes the same moment of execution.
func Attach(pid int) (*Process, error) {
	p := newProcess(pid)

	var err error
	p.execPtraceFunc(func() { err = ptraceAttach(p.pid) })
	if err != nil {
		p.release()
		return nil, &proc.AttachError{Pid: pid, Err: err}
	}

	_, status, err := p.wait()
	if err != nil {
		// The attach request went through, so the target may already be
		// stopped; try to resume it before reporting.
		var derr error
		p.execPtraceFunc(func() { derr = ptraceDetach(p.pid, 0) })
		if derr != nil {
			logflags.ScannerLogger().Debugf("detach after failed wait on pid %d: %v", pid, derr)
		}
		p.release()
		return nil, &proc.WaitError{Pid: pid, Err: err}
	}

	logger := logflags.ScannerLogger()
	switch {
	case status.Exited():
		p.exitStatus = status.ExitStatus()
		p.exited = true
		p.release()
		logger.Warnf("pid %d exited with status %d before it could be inspected", pid, p.exitStatus)
	case status.Stopped():
		p.stopped = true
		p.initialize()
		logger.Debugf("attached to pid %d (%s), stop signal %v", pid, p.comm, status.StopSignal())
	default:
		logger.Warnf("pid %d reported wait status %#x instead of a stop, its memory will not be read", pid, uint32(status))
	}

	return p, nil
}

// Detach releases the target, letting it resume execution. It must run once
// the attach has succeeded, on success and failure paths alike, so the
// target is never left stopped. Detaching an already exited or detached
// target is a no-op.
func (p *Process) Detach() error {
	if p.exited || p.detached {
		return nil
	}

	var err error
	p.execPtraceFunc(func() { err = ptraceDetach(p.pid, 0) })
	p.detached = true
	p.release()
	if err != nil {
		return &proc.DetachError{Pid: p.pid, Err: err}
	}

	// For some reason the process will sometimes enter stopped state after
	// a detach, and this doesn't happen immediately either. We have to wait
	// a bit here, then check if the process is stopped and SIGCONT it if it
	// is.
	time.Sleep(50 * time.Millisecond)
	if s := status(p.pid, p.comm); s == statusTraceStopT {
		_ = sys.Kill(p.pid, sys.SIGCONT)
	}

	logflags.ScannerLogger().Debugf("detached from pid %d", p.pid)
	return nil
}

// Scan reads every scannable region of the stopped target and hands each
// extracted string to emit, in address order. Unreadable regions are
// recorded in the report and skipped; the scan only fails outright when the
// mapping table itself can not be obtained. Scanning a target that exited
// during attach, or whose attach stop never arrived, succeeds with an empty
// report.
func (p *Process) Scan(emit func(proc.ExtractedString)) (*proc.Report, error) {
	if p.exited {
		return &proc.Report{}, nil
	}
	if p.detached {
		return nil, proc.ProcessDetachedError{}
	}
	if !p.stopped {
		logflags.ScannerLogger().Warnf("pid %d is not stopped, not reading its memory", p.pid)
		return &proc.Report{}, nil
	}

	regions, err := p.MemoryMap()
	if err != nil {
		return nil, err
	}
	logflags.ScannerLogger().Debugf("pid %d has %d mappings", p.pid, len(regions))

	mem := p.openMemory()
	defer mem.Close()

	return proc.ScanRegions(mem, regions, emit), nil
}

// MemoryMap returns a snapshot of the memory mappings of the target, in the
// order the kernel lists them.
func (p *Process) MemoryMap() ([]proc.MemoryRegion, error) {
	buf, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return nil, &proc.MappingError{Pid: p.pid, Err: err}
	}
	regions, err := linutil.ParseMappings(buf)
	if err != nil {
		return nil, &proc.MappingError{Pid: p.pid, Err: err}
	}
	return regions, nil
}

// initialize reads the short command name of the target. It is only used to
// enrich log lines and the detach stop fixup; failures leave it empty.
func (p *Process) initialize() {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", p.pid))
	if err == nil {
		p.comm = string(bytes.TrimSuffix(comm, []byte("\n")))
	}
}

func (p *Process) wait() (int, sys.WaitStatus, error) {
	var s sys.WaitStatus
	wpid, err := sys.Wait4(p.pid, &s, sys.WALL, nil)
	return wpid, s, err
}

func status(pid int, comm string) rune {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return '\000'
	}
	defer f.Close()
	rd := bufio.NewReader(f)

	var (
		p     int
		state rune
	)

	// The second field of /proc/pid/stat is the name of the task in parentheses.
	// The name of the task is the base name of the executable for this process limited to TASK_COMM_LEN characters
	// Since both parenthesis and spaces can appear inside the name of the task and no escaping happens we need to read the name of the executable first
	// See: include/linux/sched.c:315 and include/linux/sched.c:1510
	_, _ = fmt.Fscanf(rd, "%d ("+comm+")  %c", &p, &state)
	return state
}
