package proc

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtractStrings(t *testing.T) {
	const base = 0x7f0000400000
	buf := []byte("\x00ab\x01hello\x00, wo\x02rld!")

	got := ExtractStrings(base, buf)
	want := []ExtractedString{
		{Addr: base + 4, Text: "hello"},
		{Addr: base + 10, Text: ", wo"},
		{Addr: base + 15, Text: "rld!"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d strings, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("string %d: expected %#x %q, got %#x %q", i, want[i].Addr, want[i].Text, got[i].Addr, got[i].Text)
		}
	}
}

func TestExtractStringsDiscardsShortRuns(t *testing.T) {
	// "ab" and "ghi" sit below the minimum run length; only "cdef" makes it.
	got := ExtractStrings(0x1000, []byte("ab\x01cdef\x02ghi"))
	if len(got) != 1 {
		t.Fatalf("expected a single string, got %v", got)
	}
	if got[0].Addr != 0x1003 || got[0].Text != "cdef" {
		t.Errorf("expected {0x1003 cdef}, got %#x %q", got[0].Addr, got[0].Text)
	}
}

func TestExtractStringsIdempotent(t *testing.T) {
	buf := []byte("some\x00bytes\x01worth scanning twice\xff!")
	first := ExtractStrings(0x4000, buf)
	second := ExtractStrings(0x4000, buf)
	if len(first) == 0 {
		t.Fatalf("expected strings from the test buffer")
	}
	if len(first) != len(second) {
		t.Fatalf("two scans disagree: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("string %d changed between scans: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestExtractStringsMinimumLength(t *testing.T) {
	// Runs of MinStringLength-1 printable bytes must not be reported, runs
	// of exactly MinStringLength must.
	short := append(append([]byte{0}, []byte("abc")...), 0)
	if got := ExtractStrings(0, short); len(got) != 0 {
		t.Errorf("expected no strings from a 3 byte run, got %v", got)
	}
	exact := append(append([]byte{0}, []byte("abcd")...), 0)
	got := ExtractStrings(0, exact)
	if len(got) != 1 || got[0].Text != "abcd" || got[0].Addr != 1 {
		t.Errorf("expected [{1 abcd}], got %v", got)
	}
}

func TestExtractStringsPrintableBoundaries(t *testing.T) {
	// 0x20 and 0x7e are the first and last printable bytes, 0x1f and 0x7f
	// sit just outside.
	got := ExtractStrings(0, []byte("\x1f ~ ~\x7f"))
	if len(got) != 1 || got[0].Text != " ~ ~" || got[0].Addr != 1 {
		t.Fatalf("expected [{1 \" ~ ~\"}], got %v", got)
	}
}

func TestExtractStringsAtBufferEdges(t *testing.T) {
	// A run may start at the first byte and another may end flush with the
	// end of the buffer.
	got := ExtractStrings(0x10, []byte("head\x00\x00tail"))
	if len(got) != 2 {
		t.Fatalf("expected 2 strings, got %v", got)
	}
	if got[0].Addr != 0x10 || got[0].Text != "head" {
		t.Errorf("expected {16 head}, got %#x %q", got[0].Addr, got[0].Text)
	}
	if got[1].Addr != 0x16 || got[1].Text != "tail" {
		t.Errorf("expected {22 tail}, got %#x %q", got[1].Addr, got[1].Text)
	}
}

func TestExtractStringsWholeBufferPrintable(t *testing.T) {
	got := ExtractStrings(0, []byte("entirely printable"))
	if len(got) != 1 || got[0].Text != "entirely printable" {
		t.Fatalf("expected the whole buffer as one string, got %v", got)
	}
}

func TestExtractStringsNothingPrintable(t *testing.T) {
	if got := ExtractStrings(0, bytes.Repeat([]byte{0, 1, 0x1f, 0x7f, 0xff}, 16)); len(got) != 0 {
		t.Errorf("expected no strings, got %v", got)
	}
	if got := ExtractStrings(0, nil); len(got) != 0 {
		t.Errorf("expected no strings from an empty buffer, got %v", got)
	}
}

func TestExtractStringsMultibyteTail(t *testing.T) {
	// Bytes above 0x7e are not printable, so only the ASCII tail of a
	// multibyte encoded word survives.
	got := ExtractStrings(0, []byte("caf\xc3\xa9 latte"))
	if len(got) != 1 || got[0].Text != " latte" || got[0].Addr != 5 {
		t.Fatalf("expected [{5 \" latte\"}], got %v", got)
	}
}

func TestStringScannerMatchesExtractStrings(t *testing.T) {
	const base = 0x555555000000
	buf := []byte("one\x00pair of strings\x01\x02with gaps\xffx\x00tiny")

	var streamed []ExtractedString
	sc := NewStringScanner(base, buf)
	for sc.Scan() {
		streamed = append(streamed, sc.Str())
	}
	if sc.Scan() {
		t.Fatalf("Scan returned true after reporting exhaustion")
	}

	eager := ExtractStrings(base, buf)
	if len(streamed) != len(eager) {
		t.Fatalf("scanner yielded %d strings, ExtractStrings %d", len(streamed), len(eager))
	}
	for i := range eager {
		if streamed[i] != eager[i] {
			t.Errorf("string %d: scanner %v, eager %v", i, streamed[i], eager[i])
		}
	}
	for i := 1; i < len(streamed); i++ {
		if streamed[i].Addr <= streamed[i-1].Addr {
			t.Errorf("strings out of address order: %#x after %#x", streamed[i].Addr, streamed[i-1].Addr)
		}
	}
}

func TestStringScannerRunsAreMaximal(t *testing.T) {
	buf := []byte(strings.Repeat("x", 100))
	got := ExtractStrings(0, buf)
	if len(got) != 1 || len(got[0].Text) != 100 {
		t.Fatalf("expected one maximal 100 byte run, got %v", got)
	}
}
