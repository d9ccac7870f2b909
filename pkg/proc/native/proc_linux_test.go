package native

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	sys "golang.org/x/sys/unix"

	"github.com/dle9/seer/pkg/proc"
)

const scanMarker = "seer_scan_marker_2b7d91"

// TestHelperProcess is not a real test. It is re-executed as the scan target
// of the tests below: it fills a heap buffer with a known marker, announces
// readiness on stdout and then sleeps until it is killed.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SEER_HELPER_PROCESS") != "1" {
		return
	}
	data := []byte(strings.Repeat(scanMarker+"|", 16))
	fmt.Println("ready")
	time.Sleep(30 * time.Second)
	runtime.KeepAlive(data)
	os.Exit(0)
}

// startTarget launches a helper copy of the test binary and waits until its
// marker buffer is in place.
func startTarget(t *testing.T) int {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=TestHelperProcess")
	cmd.Env = append(os.Environ(), "SEER_HELPER_PROCESS=1")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("could not pipe helper stdout: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("could not start helper process: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	line, err := bufio.NewReader(stdout).ReadString('\n')
	if err != nil || !strings.HasPrefix(line, "ready") {
		t.Fatalf("helper process did not become ready: %q, %v", line, err)
	}
	return cmd.Process.Pid
}

// attachTarget attaches to pid, skipping the test when the environment does
// not grant ptrace on our own child (locked down containers).
func attachTarget(t *testing.T, pid int) *Process {
	t.Helper()
	p, err := Attach(pid)
	if err != nil {
		var aerr *proc.AttachError
		if errors.As(err, &aerr) && (errors.Is(aerr.Err, sys.EPERM) || errors.Is(aerr.Err, sys.EACCES)) {
			t.Skipf("insufficient privileges to ptrace: %v", err)
		}
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { p.Detach() })
	return p
}

func TestAttachScanDetach(t *testing.T) {
	pid := startTarget(t)
	p := attachTarget(t, pid)

	if !p.Stopped() {
		t.Fatalf("target not stopped after attach")
	}

	var found bool
	report, err := p.Scan(func(s proc.ExtractedString) {
		if strings.Contains(s.Text, scanMarker) {
			found = true
		}
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Scanned == 0 {
		t.Fatalf("no region was scanned: %+v", report)
	}
	if !found {
		t.Errorf("marker not found in %d strings over %d bytes", report.Strings, report.BytesRead)
	}

	if err := p.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	// The target must be running again; signal 0 only probes for existence.
	if err := syscall.Kill(pid, syscall.Signal(0)); err != nil {
		t.Errorf("target gone after detach: %v", err)
	}
	if s := status(pid, "native.test"); s == statusTraceStop || s == statusTraceStopT {
		t.Errorf("target still stopped after detach: %c", s)
	}
}

func TestAttachNonexistentPid(t *testing.T) {
	// Pid numbers near the default pid_max are essentially never in use.
	_, err := Attach(4194000)
	if err == nil {
		t.Fatalf("expected an error attaching to a nonexistent pid")
	}
	var aerr *proc.AttachError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected an AttachError, got %T: %v", err, err)
	}
	if !errors.Is(err, sys.ESRCH) && !errors.Is(err, sys.EPERM) {
		t.Errorf("unexpected underlying error: %v", err)
	}
}

func TestScanAfterDetach(t *testing.T) {
	pid := startTarget(t)
	p := attachTarget(t, pid)
	if err := p.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if err := p.Detach(); err != nil {
		t.Fatalf("second Detach should be a no-op, got %v", err)
	}
	if _, err := p.Scan(nil); err == nil {
		t.Fatalf("expected an error scanning after detach")
	}
}

func TestMemoryMap(t *testing.T) {
	pid := startTarget(t)
	p := attachTarget(t, pid)

	regions, err := p.MemoryMap()
	if err != nil {
		t.Fatalf("MemoryMap: %v", err)
	}
	if len(regions) == 0 {
		t.Fatalf("expected at least one mapping")
	}
	var stack bool
	for _, r := range regions {
		if r.Start >= r.End {
			t.Errorf("inverted mapping %x-%x", r.Start, r.End)
		}
		if r.Filename == "[stack]" {
			stack = true
		}
	}
	if !stack {
		t.Errorf("no [stack] mapping in %d regions", len(regions))
	}
}
