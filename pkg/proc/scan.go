package proc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dle9/seer/pkg/logflags"
)

// Report summarizes one pass over a snapshot of the target's mappings.
type Report struct {
	// Regions is the number of mappings in the snapshot.
	Regions int
	// Scanned counts the mappings that were read whole and searched.
	Scanned int
	// Skipped counts the mappings excluded up front, because they are not
	// readable or their backing file is under a skipped path prefix.
	Skipped int
	// Failed counts the mappings that passed the filter but could not be
	// read back. The mapping table is a snapshot; the kernel may reject
	// reads from ranges it listed a moment ago.
	Failed int

	BytesRead uint64
	Strings   int

	// Errs aggregates the per-region read failures counted by Failed. They
	// never abort a scan, but callers that want to surface them get the
	// full list rather than the last one.
	Errs *multierror.Error
}

// ScanRegions reads every scannable region of the snapshot through mem and
// hands each extracted string to emit, in address order. A failed or short
// region read skips that region whole; the remaining regions are still
// scanned. The emit callback may be nil, which still counts the strings.
func ScanRegions(mem MemoryReader, regions []MemoryRegion, emit func(ExtractedString)) *Report {
	mapslog := logflags.MapsLogger()
	memlog := logflags.MemLogger()

	report := &Report{Regions: len(regions)}
	for i := range regions {
		r := &regions[i]
		if !r.Scannable() {
			report.Skipped++
			continue
		}
		if logflags.Maps() {
			mapslog.Debug(r.String())
		}

		buf := make([]byte, r.Size())
		n, err := mem.ReadMemory(buf, r.Start)
		if err == nil && n != len(buf) {
			err = fmt.Errorf("short read: %d of %d bytes", n, len(buf))
		}
		if err != nil {
			if logflags.Mem() {
				memlog.Debugf("could not read %x-%x: %v", r.Start, r.End, err)
			}
			report.Errs = multierror.Append(report.Errs, fmt.Errorf("region %x-%x: %w", r.Start, r.End, err))
			report.Failed++
			continue
		}

		report.Scanned++
		report.BytesRead += uint64(n)
		sc := NewStringScanner(r.Start, buf)
		for sc.Scan() {
			report.Strings++
			if emit != nil {
				emit(sc.Str())
			}
		}
	}
	return report
}
