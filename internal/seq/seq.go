// Package seq asserts that log output contains lines in a particular order.
// Lines named in the sequence may not appear anywhere outside of it, so a
// sequence also asserts how many times each of its lines occurs.
package seq

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertStringContainsSequence(t *testing.T, str string, seq ...string) {
	t.Helper()
	assert.NoError(t, StringContainsSequence(str, seq...))
}

func AssertContainsSequence(t *testing.T, lines []string, seq ...string) {
	t.Helper()
	assert.NoError(t, ContainsSequence(lines, seq...))
}

func StringContainsSequence(str string, seq ...string) error {
	return ContainsSequence(strings.Split(str, "\n"), seq...)
}

func ContainsSequence(lines []string, seq ...string) error {
	asserted := map[string]struct{}{}
	for _, l := range seq {
		asserted[l] = struct{}{}
	}

	lineIndex := 0
seqloop:
	for seqIndex, expect := range seq {
		for ; lineIndex < len(lines); lineIndex++ {
			line := lines[lineIndex]
			if line == expect {
				lineIndex++
				continue seqloop
			} else if _, isAsserted := asserted[line]; isAsserted {
				return report(seq, lines,
					"Found sequenced item outside of the sequence.",
					fmt.Sprintf("Found: '%s'", line),
					fmt.Sprintf("Looking for sequence item %d: '%s'", seqIndex+1, expect))
			}
		}
		return report(seq, lines,
			"Not found in sequence.",
			fmt.Sprintf("Item %d: '%s'", seqIndex+1, expect))
	}

	// Got through the seq; the rest of the lines must not repeat any of it.
	for ; lineIndex < len(lines); lineIndex++ {
		line := lines[lineIndex]
		if _, isAsserted := asserted[line]; isAsserted {
			return report(seq, lines,
				"Found outside of sequence.",
				fmt.Sprintf("Found: '%s'", line),
				"Entire sequence already consumed.")
		}
	}
	return nil
}

func report(seq, lines []string, headline ...string) error {
	parts := append(headline,
		"",
		"Sequence:",
		strings.Join(seq, "\n"),
		"",
		"Actual:",
		strings.Join(lines, "\n"),
	)
	return fmt.Errorf("%s", strings.Join(parts, "\n"))
}
