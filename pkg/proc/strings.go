package proc

// MinStringLength is the minimum number of consecutive printable bytes that
// count as a string. Shorter runs are almost always instruction bytes or
// pointer halves that happen to land in the printable range, so they are
// discarded.
const MinStringLength = 4

// Printable means the ASCII range from space to tilde. Multibyte encodings
// are out of scope: a UTF-8 sequence with a printable ASCII tail still
// yields the tail.
const (
	minPrintable = 0x20
	maxPrintable = 0x7e
)

// ExtractedString is one run of printable bytes found in the target's
// memory, tagged with the absolute address of its first byte.
type ExtractedString struct {
	Addr uint64
	Text string
}

// StringScanner finds the printable runs in a memory buffer, in address
// order. It mirrors the bufio.Scanner loop:
//
//	sc := proc.NewStringScanner(region.Start, buf)
//	for sc.Scan() {
//		emit(sc.Str())
//	}
//
// The scanner holds no resources and never fails; when Scan returns false
// the buffer is exhausted.
type StringScanner struct {
	base uint64
	buf  []byte
	pos  int
	cur  ExtractedString
}

// NewStringScanner returns a scanner over buf. Addresses of the extracted
// strings are reported relative to base, the absolute address buf was read
// from.
func NewStringScanner(base uint64, buf []byte) *StringScanner {
	return &StringScanner{base: base, buf: buf}
}

// Scan advances to the next run of at least MinStringLength printable bytes,
// returning false when no further run exists.
func (sc *StringScanner) Scan() bool {
	for sc.pos < len(sc.buf) {
		start := sc.pos
		for sc.pos < len(sc.buf) && printable(sc.buf[sc.pos]) {
			sc.pos++
		}
		if sc.pos-start >= MinStringLength {
			sc.cur = ExtractedString{
				Addr: sc.base + uint64(start),
				Text: string(sc.buf[start:sc.pos]),
			}
			return true
		}
		if sc.pos == start {
			sc.pos++
		}
	}
	return false
}

// Str returns the string found by the last successful call to Scan.
func (sc *StringScanner) Str() ExtractedString {
	return sc.cur
}

// ExtractStrings returns every string of buf at once. It is equivalent to
// draining a StringScanner into a slice.
func ExtractStrings(base uint64, buf []byte) []ExtractedString {
	var out []ExtractedString
	sc := NewStringScanner(base, buf)
	for sc.Scan() {
		out = append(out, sc.Str())
	}
	return out
}

func printable(b byte) bool {
	return b >= minPrintable && b <= maxPrintable
}
