package core

// sniff.go detects the field separator of an uploaded table.

import (
	"bytes"
	"strings"
)

// SniffSampleSize is how many leading bytes are inspected.
var SniffSampleSize = 2048

// delimiterCandidates are the separators auto-detection chooses between.
var delimiterCandidates = []byte{',', ';'}

// DetectDelimiter picks the separator used by data.
//
// A candidate is consistent when it appears, outside quotes, the same
// non-zero number of times on every sampled line. A single consistent
// candidate wins; when both are consistent the one with more occurrences per
// line wins. Otherwise the first line decides by plain majority, and a tie
// falls back to a comma.
func DetectDelimiter(data []byte) rune {
	lines := sampleLines(data)
	if len(lines) == 0 {
		return ','
	}

	if d, ok := sniffConsistent(lines); ok {
		return rune(d)
	}

	first := lines[0]
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// sampleLines returns the non-blank lines of the sample, cut at the last
// complete line when the sample was truncated.
func sampleLines(data []byte) []string {
	sample := data
	if len(sample) > SniffSampleSize {
		sample = sample[:SniffSampleSize]
		if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	var lines []string
	for _, line := range strings.Split(string(sample), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func sniffConsistent(lines []string) (byte, bool) {
	var (
		best      byte
		bestCount int
		tied      bool
	)
	for _, c := range delimiterCandidates {
		n, ok := consistentCount(lines, c)
		if !ok {
			continue
		}
		switch {
		case n > bestCount:
			best, bestCount, tied = c, n, false
		case n == bestCount:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return 0, false
	}
	return best, true
}

// consistentCount returns the per-line count of delim when every line has
// the same non-zero count.
func consistentCount(lines []string, delim byte) (int, bool) {
	want := -1
	for _, line := range lines {
		n := countOutsideQuotes(line, delim)
		if n == 0 {
			return 0, false
		}
		if want == -1 {
			want = n
			continue
		}
		if n != want {
			return 0, false
		}
	}
	return want, want > 0
}

func countOutsideQuotes(line string, delim byte) int {
	n := 0
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case delim:
			if !inQuotes {
				n++
			}
		}
	}
	return n
}
