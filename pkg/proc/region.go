package proc

import (
	"fmt"
	"strings"
)

// skipPathPrefixes lists the filesystem locations whose file-backed mappings
// are excluded from scanning. Shared libraries and other system files live
// under /usr on every supported distribution and their mapped text would
// drown the interesting output.
var skipPathPrefixes = []string{"/usr"}

// MemoryRegion describes one mapping of the target process, i.e. one line of
// its /proc/<pid>/maps table.
type MemoryRegion struct {
	Start uint64
	End   uint64

	Read, Write, Exec bool

	// At most one of Private and Shared is set for a well formed mapping.
	Private, Shared bool

	// Offset is the offset into the backing file, 0 for anonymous mappings.
	Offset uint64
	// Dev is the major:minor device number of the backing file.
	Dev string
	// Inode identifies the backing file on Dev, "0" or empty for anonymous
	// mappings.
	Inode string
	// Filename is the path of the backing file. It is empty for anonymous
	// mappings; pseudo-mappings carry a bracketed marker such as [heap] or
	// [stack] instead of a path.
	Filename string
}

// Size returns the extent of the region in bytes.
func (r *MemoryRegion) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Perms renders the permission column of the region in the four character
// rwxp form used by the kernel.
func (r *MemoryRegion) Perms() string {
	perms := []byte("----")
	if r.Read {
		perms[0] = 'r'
	}
	if r.Write {
		perms[1] = 'w'
	}
	if r.Exec {
		perms[2] = 'x'
	}
	if r.Private {
		perms[3] = 'p'
	}
	if r.Shared {
		perms[3] = 's'
	}
	return string(perms)
}

func (r *MemoryRegion) String() string {
	return strings.TrimRight(fmt.Sprintf("%x-%x %s %x %s %s %s", r.Start, r.End, r.Perms(), r.Offset, r.Dev, r.Inode, r.Filename), " ")
}

// Scannable reports whether the region reader should read this region.
// Regions without read permission can not be read even while the target is
// stopped, inverted address ranges are malformed, and mappings of files under
// a skipped path prefix are deliberately left out.
func (r *MemoryRegion) Scannable() bool {
	if !r.Read {
		return false
	}
	if r.End <= r.Start {
		return false
	}
	for _, prefix := range skipPathPrefixes {
		if strings.HasPrefix(r.Filename, prefix) {
			return false
		}
	}
	return true
}
