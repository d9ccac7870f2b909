package native

import (
	"runtime"

	"github.com/dle9/seer/pkg/proc"
)

// Process represents a target process this package has attached to. It is
// created stopped by Attach and stays stopped until Detach; in between, its
// memory can be read.
type Process struct {
	pid int

	// comm is the short command name of the target, read once after the
	// attach stop; it only enriches log lines.
	comm string

	// stopped is set once the post-attach wait has observed the expected
	// ptrace stop. Memory is only read while the target is stopped.
	stopped bool

	ptraceChan     chan func()
	ptraceDoneChan chan interface{}

	exited     bool
	exitStatus int
	detached   bool
}

// newProcess returns an initialized Process struct. Before returning, it
// also launches a goroutine to handle ptrace(2) requests. For more
// information, see the documentation on handlePtraceFuncs.
func newProcess(pid int) *Process {
	p := &Process{
		pid:            pid,
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan interface{}),
	}
	go p.handlePtraceFuncs()
	return p
}

func (p *Process) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread for the
	// lifetime of the attachment. This is due to the fact that ptrace(2)
	// expects all commands after PTRACE_ATTACH to come from the same thread.
	runtime.LockOSThread()

	for fn := range p.ptraceChan {
		fn()
		p.ptraceDoneChan <- nil
	}
}

func (p *Process) execPtraceFunc(fn func()) {
	p.ptraceChan <- fn
	<-p.ptraceDoneChan
}

// release shuts down the ptrace funnel, ending its locked handler thread.
// No further ptrace request can be issued for this target afterwards, so it
// runs exactly once, on whichever of the detach or exit paths the target
// takes.
func (p *Process) release() {
	close(p.ptraceChan)
	close(p.ptraceDoneChan)
}

// Pid returns the process ID of the target.
func (p *Process) Pid() int {
	return p.pid
}

// Comm returns the short command name of the target, if it could be read.
func (p *Process) Comm() string {
	return p.comm
}

// Stopped reports whether the target is currently suspended by our attach.
func (p *Process) Stopped() bool {
	return p.stopped && !p.exited && !p.detached
}

// Valid returns whether the target can still be inspected.
func (p *Process) Valid() (bool, error) {
	if p.detached {
		return false, proc.ProcessDetachedError{}
	}
	if p.exited {
		return false, proc.ErrProcessExited{Pid: p.pid, Status: p.exitStatus}
	}
	return true, nil
}
