package discovery

import (
	"strings"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

const (
	// defKeyword is the token content that introduces a function definition
	// in the structural dump.
	defKeyword = "def"
	// defShape is the parser shape assigned to the def keyword when it is
	// acting as a command call rather than, say, a string literal.
	defShape = "shape_internalcall"
)

// ExtractAnnotations scans a module's structural token stream and returns
// every function definition together with the comment line immediately
// preceding it. The scan is purely lexical; the module is never evaluated.
//
// The annotation for a definition is the last non-blank line of the raw
// source text between the end of the token preceding the def keyword and the
// def keyword itself. A definition that opens the file has no preceding
// token and therefore an empty annotation.
func ExtractAnnotations(tokens []types.Token, source string) []types.AnnotatedFunction {
	var funcs []types.AnnotatedFunction
	for i, tok := range tokens {
		if tok.Content != defKeyword || tok.Shape != defShape {
			continue
		}
		if i+1 >= len(tokens) {
			// Trailing def with no name token. Nothing to record.
			continue
		}
		name := strings.Trim(tokens[i+1].Content, `"`)

		annotation := ""
		if i > 0 {
			annotation = lastLineBetween(source, tokens[i-1].Span.End, tok.Span.Start)
		}
		funcs = append(funcs, types.AnnotatedFunction{
			Name:       name,
			Annotation: annotation,
		})
	}
	return funcs
}

// lastLineBetween returns the last non-blank line of source[from:to], with
// surrounding whitespace trimmed. Out-of-range offsets are clamped so a
// malformed dump cannot panic the scan.
func lastLineBetween(source string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(source) {
		to = len(source)
	}
	if from >= to {
		return ""
	}
	last := ""
	for _, line := range strings.Split(source[from:to], "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	return last
}
