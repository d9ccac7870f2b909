//go:build linux && !amd64 && !arm64 && !ppc64le && !riscv64 && !loong64

package native

import "syscall"

// process_vm_readv is only wired up on the 64-bit architectures, where the
// iovec length field is known to be 64 bits wide. Everywhere else the proc
// mem file is the one transport.
func processVmRead(pid int, addr uintptr, data []byte) (int, error) {
	return 0, syscall.ENOTSUP
}
