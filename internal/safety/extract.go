package safety

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Candidate is a command-like substring found in free text, with enough
// position information to break risk ties by latest occurrence.
type Candidate struct {
	Text   string
	Offset int
}

// commandStarters are tokens that begin a command candidate even when the
// program itself is unknown to the catalog.
var commandStarters = map[string]bool{
	"sudo": true,
	"env":  true,
}

// ExtractCommands performs the lexical scan that pulls command candidates
// out of debate text. Backtick spans are taken verbatim; otherwise each line
// is scanned for the first token the catalog knows (or a starter like sudo)
// and the rest of the line becomes the candidate. Every candidate is then
// run through the shell parser; spans that do not parse are dropped, and
// multi-segment pipelines contribute one candidate per segment.
func ExtractCommands(text string, known func(string) bool) []Candidate {
	var spans []Candidate

	// Backtick-delimited spans first.
	stripped := text
	for start := strings.IndexByte(stripped, '`'); start >= 0; start = strings.IndexByte(stripped, '`') {
		rest := stripped[start+1:]
		end := strings.IndexByte(rest, '`')
		if end < 0 {
			break
		}
		offset := len(text) - len(stripped) + start + 1
		spans = append(spans, Candidate{Text: rest[:end], Offset: offset})
		stripped = rest[end+1:]
	}

	// Line scan for known leading tokens.
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "`") {
			if c, ok := lineCandidate(line, offset, known); ok {
				spans = append(spans, c)
			}
		}
		offset += len(line) + 1
	}

	var out []Candidate
	for _, span := range spans {
		out = append(out, parseCandidate(span)...)
	}
	return out
}

// lineCandidate finds the first known program token in a line and returns
// the remainder of the line from that token.
func lineCandidate(line string, lineOffset int, known func(string) bool) (Candidate, bool) {
	rest := line
	for {
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed == "" {
			return Candidate{}, false
		}
		tokenEnd := strings.IndexAny(trimmed, " \t")
		token := trimmed
		if tokenEnd >= 0 {
			token = trimmed[:tokenEnd]
		}
		word := strings.Trim(token, `"',.;:!?()`)
		if commandStarters[word] || known(word) {
			at := len(line) - len(trimmed)
			return Candidate{Text: strings.TrimRight(trimmed, `.,;:!?"'`), Offset: lineOffset + at}, true
		}
		if tokenEnd < 0 {
			return Candidate{}, false
		}
		rest = trimmed[tokenEnd:]
	}
}

// parseCandidate validates a span with the shell parser and splits it into
// one candidate per pipeline segment. Spans that do not parse as shell are
// discarded; prose that merely mentions a program name is not a command.
func parseCandidate(span Candidate) []Candidate {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(span.Text), "")
	if err != nil {
		return nil
	}

	printer := syntax.NewPrinter()
	var out []Candidate
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		var sb strings.Builder
		if err := printer.Print(&sb, call); err != nil {
			return true
		}
		segment := strings.TrimSpace(sb.String())
		if segment != "" {
			out = append(out, Candidate{Text: segment, Offset: span.Offset + int(call.Pos().Offset())})
		}
		return true
	})
	return out
}
