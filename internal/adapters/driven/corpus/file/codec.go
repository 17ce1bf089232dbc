package file

import "strings"

// Delimiter separates phrases in a corpus file.
const Delimiter = "&&"

const escape = '\\'

// encodePhrase escapes backslashes and ampersands so an encoded phrase
// can never contain the delimiter.
func encodePhrase(phrase string) string {
	if !strings.ContainsAny(phrase, `\&`) {
		return phrase
	}
	var b strings.Builder
	b.Grow(len(phrase) + 4)
	for _, r := range phrase {
		if r == escape || r == '&' {
			b.WriteRune(escape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// decodeCorpus splits raw file content into trimmed, non-empty phrases.
// Only an unescaped "&&" separates phrases. "\\" and "\&" decode to
// the escaped character; any other backslash, and a lone "&", are kept
// as text so files written without escaping load unchanged.
func decodeCorpus(raw string) []string {
	phrases := []string{}
	var cur strings.Builder

	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			phrases = append(phrases, p)
		}
		cur.Reset()
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == escape && i+1 < len(raw) && (raw[i+1] == escape || raw[i+1] == '&'):
			i++
			cur.WriteByte(raw[i])
		case c == '&' && i+1 < len(raw) && raw[i+1] == '&':
			i++
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return phrases
}

// needsSeparator reports whether a delimiter written directly after last
// would be misread: a trailing "&" would join it, a trailing backslash
// would escape it.
func needsSeparator(last byte) bool {
	return last == '&' || last == escape
}
