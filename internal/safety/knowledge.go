package safety

import (
	"fmt"
	"sort"
	"strings"
)

// Knowledge is the compressed form of a set of per-agent critiques on one
// debate topic. The phrase dictionary travels with the payload, so the
// transform is reversible without out-of-band state:
// Decompress(Compress(x)) == x for every input, including inputs with no
// repeats (ratio close to 1 then).
type Knowledge struct {
	Topic            string
	Dictionary       []string          // index -> phrase
	Critiques        map[string]string // agent id -> substituted text
	OriginalSize     int
	CompressedSize   int
	Ratio            float64
	BytesSaved       int
	UsedHierarchical bool
}

// marker delimits substitution tokens. Literal markers in the input are
// doubled during compression; the decompressor's left-to-right scan makes
// the two cases unambiguous.
const marker = '\x1b'

const (
	phraseWords   = 3  // sliding-window length
	minOccurrence = 2  // phrases must repeat to earn a dictionary slot
	maxDictionary = 64 // hard cap on dictionary size
)

// CompressKnowledge extracts repeated 3-token phrases across all critiques,
// builds a phrase-to-token dictionary, and applies the substitution.
func CompressKnowledge(topic string, critiques map[string]string) *Knowledge {
	k := &Knowledge{Topic: topic, Critiques: map[string]string{}}

	agents := make([]string, 0, len(critiques))
	for agent, text := range critiques {
		agents = append(agents, agent)
		k.OriginalSize += len(text)
	}
	sort.Strings(agents)

	escaped := map[string]string{}
	for _, agent := range agents {
		escaped[agent] = strings.ReplaceAll(critiques[agent], string(marker), string(marker)+string(marker))
	}

	k.Dictionary = buildDictionary(agents, escaped)
	k.UsedHierarchical = len(k.Dictionary) > 0

	for _, agent := range agents {
		text := escaped[agent]
		for i, phrase := range k.Dictionary {
			text = strings.ReplaceAll(text, phrase, token(i))
		}
		k.Critiques[agent] = text
		k.CompressedSize += len(text)
	}
	for _, phrase := range k.Dictionary {
		k.CompressedSize += len(phrase)
	}

	k.BytesSaved = k.OriginalSize - k.CompressedSize
	if k.CompressedSize > 0 {
		k.Ratio = float64(k.OriginalSize) / float64(k.CompressedSize)
	} else {
		k.Ratio = 1.0
	}
	return k
}

// Decompress reverses the substitution and unescapes literal markers,
// returning the original critiques.
func (k *Knowledge) Decompress() map[string]string {
	out := make(map[string]string, len(k.Critiques))
	for agent, text := range k.Critiques {
		out[agent] = k.expand(text)
	}
	return out
}

// expand scans left to right: a doubled marker is a literal marker; a single
// marker introduces a token index terminated by another marker.
func (k *Knowledge) expand(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); {
		if text[i] != marker {
			sb.WriteByte(text[i])
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == marker {
			sb.WriteByte(marker)
			i += 2
			continue
		}
		end := strings.IndexByte(text[i+1:], marker)
		if end < 0 {
			// Truncated token; emit verbatim rather than lose bytes.
			sb.WriteString(text[i:])
			break
		}
		idx := 0
		valid := end > 0
		for _, c := range text[i+1 : i+1+end] {
			if c < '0' || c > '9' {
				valid = false
				break
			}
			idx = idx*10 + int(c-'0')
		}
		if !valid || idx >= len(k.Dictionary) {
			sb.WriteString(text[i : i+1+end+1])
			i += end + 2
			continue
		}
		sb.WriteString(k.Dictionary[idx])
		i += end + 2
	}
	return sb.String()
}

func token(i int) string {
	return fmt.Sprintf("%c%d%c", marker, i, marker)
}

// buildDictionary slides a 3-token window over every critique and keeps, in
// first-seen order, the phrases that occur at least twice across the corpus
// and actually save bytes when substituted.
func buildDictionary(agents []string, escaped map[string]string) []string {
	var order []string
	seen := map[string]bool{}
	for _, agent := range agents {
		words := strings.Fields(escaped[agent])
		for i := 0; i+phraseWords <= len(words); i++ {
			phrase := strings.Join(words[i:i+phraseWords], " ")
			if seen[phrase] || strings.ContainsRune(phrase, marker) {
				continue
			}
			seen[phrase] = true
			order = append(order, phrase)
		}
	}

	var dict []string
	for _, phrase := range order {
		count := 0
		for _, agent := range agents {
			count += strings.Count(escaped[agent], phrase)
		}
		if count < minOccurrence {
			continue
		}
		// Worst-case token is len("\x1b63\x1b"); require real savings.
		if count*(len(phrase)-len(token(maxDictionary-1))) <= len(phrase) {
			continue
		}
		dict = append(dict, phrase)
		if len(dict) == maxDictionary {
			break
		}
	}
	return dict
}
