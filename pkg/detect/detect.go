// Package detect guesses which log grammar a file follows from a sample of
// its leading lines.
package detect

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/praetorian-inc/logsift/pkg/grammar"
)

// SampleSize is the number of line reads used for detection.
const SampleSize = 10

// Sample is the bounded line prefix of a file. Lines keep their terminator.
// Reads past end of file contribute empty lines.
type Sample []string

// ReadSample performs exactly SampleSize line reads from r. CRLF
// terminators are normalised to LF. Reading consumes r; callers that go on
// to read the content again must rewind the underlying source.
func ReadSample(r *bufio.Reader) (Sample, error) {
	sample := make(Sample, 0, SampleSize)
	for i := 0; i < SampleSize; i++ {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		sample = append(sample, NormalizeNewline(line))
	}
	return sample, nil
}

// Detect returns the name of the first grammar, in registry order, that
// matches at the start of a sample line. Lines are tried in order and the
// first hit wins; there is no further tie-break. ok is false when no line
// matches any grammar.
func Detect(sample Sample, reg *grammar.Registry) (name string, ok bool) {
	grammars := reg.All()
	for _, line := range sample {
		for _, g := range grammars {
			if g.Matches(line) {
				return g.Name, true
			}
		}
	}
	return "", false
}

// NormalizeNewline rewrites a trailing "\r\n" as "\n".
func NormalizeNewline(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2] + "\n"
	}
	return line
}
