package linutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dle9/seer/pkg/proc"
)

// ParseMappings parses the contents of a /proc/<pid>/maps table into memory
// regions, preserving the order of the lines. It works on an in-memory copy
// so that the table, which describes a stopped process, is decoded without
// touching the process again.
func ParseMappings(buf []byte) ([]proc.MemoryRegion, error) {
	lines := strings.Split(string(buf), "\n")
	regions := make([]proc.MemoryRegion, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		region, err := parseMapsLine(i+1, line)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// parseMapsLine parses one line of the maps table:
//
//	00400000-00452000 r-xp 00000000 08:02 173521     /usr/bin/dbus-daemon
//
// Only a malformed address range is an error, since a region that can not be
// located is unusable. Every later column may be absent or mangled without
// losing the line: a permission column that is not exactly four characters
// leaves every flag cleared, a bad offset falls back to 0, and device, inode
// and path are passed through as found.
func parseMapsLine(lineno int, line string) (proc.MemoryRegion, error) {
	var region proc.MemoryRegion

	fields := strings.SplitN(line, " ", 6)

	addr := fields[0]
	dash := strings.Index(addr, "-")
	if dash < 0 {
		return region, fmt.Errorf("malformed address range on line %d: %q", lineno, line)
	}
	start, err := strconv.ParseUint(addr[:dash], 16, 64)
	if err != nil {
		return region, fmt.Errorf("malformed address range on line %d: %q (%v)", lineno, line, err)
	}
	end, err := strconv.ParseUint(addr[dash+1:], 16, 64)
	if err != nil {
		return region, fmt.Errorf("malformed address range on line %d: %q (%v)", lineno, line, err)
	}
	region.Start, region.End = start, end

	if len(fields) > 1 {
		parsePerms(&region, fields[1])
	}
	if len(fields) > 2 {
		region.Offset, _ = strconv.ParseUint(fields[2], 16, 64)
	}
	if len(fields) > 3 {
		region.Dev = fields[3]
	}
	if len(fields) > 4 {
		region.Inode = fields[4]
	}
	if len(fields) > 5 {
		// The kernel pads the inode column, so the path keeps leading
		// spaces here. Paths containing spaces survive because the line was
		// split at most five times.
		region.Filename = strings.TrimLeft(fields[5], " ")
	}
	return region, nil
}

// parsePerms derives the permission flags positionally from the rwxp column.
func parsePerms(region *proc.MemoryRegion, perms string) {
	if len(perms) != 4 {
		return
	}
	region.Read = perms[0] == 'r'
	region.Write = perms[1] == 'w'
	region.Exec = perms[2] == 'x'
	region.Private = perms[3] == 'p'
	region.Shared = perms[3] == 's'
}
