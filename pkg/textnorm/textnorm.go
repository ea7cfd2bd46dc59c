// Package textnorm converts unicode text to its closest ASCII rendition
// before it is embedded in notification emails. Curly punctuation, exotic
// spaces, and common symbols map to ASCII equivalents; accented letters
// lose their diacritics; anything that has no ASCII shape (emoji, symbols)
// is dropped.
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements maps unicode punctuation and symbol variants to ASCII.
var replacements = map[rune]string{
	// Quotation marks
	'“': `"`, // left double quotation mark
	'”': `"`, // right double quotation mark
	'„': `"`, // double low-9 quotation mark
	'‟': `"`, // double high-reversed-9 quotation mark
	'‘': `'`, // left single quotation mark
	'’': `'`, // right single quotation mark
	'‚': `'`, // single low-9 quotation mark
	'‛': `'`, // single high-reversed-9 quotation mark
	'′': `'`, // prime
	'″': `"`, // double prime

	// Dashes and hyphens
	'–': "-",  // en dash
	'—': "--", // em dash
	'―': "--", // horizontal bar
	'−': "-",  // minus sign

	'…': "...", // horizontal ellipsis

	// Space variants
	'\u00A0': " ", // no-break space
	'\u2000': " ", // en quad
	'\u2001': " ", // em quad
	'\u2002': " ", // en space
	'\u2003': " ", // em space
	'\u2004': " ", // three-per-em space
	'\u2005': " ", // four-per-em space
	'\u2006': " ", // six-per-em space
	'\u2007': " ", // figure space
	'\u2008': " ", // punctuation space
	'\u2009': " ", // thin space
	'\u200A': " ", // hair space

	// Zero-width characters are removed outright
	'\u200B': "", // zero width space
	'\u200C': "", // zero width non-joiner
	'\u200D': "", // zero width joiner
	'\uFEFF': "", // byte order mark

	// Symbols
	'©': "(c)",
	'®': "(R)",
	'™': "(TM)",
	'•': "*", // bullet
	'‣': ">", // triangular bullet
	'⁃': "-", // hyphen bullet

	// Currency
	'€': "EUR",
	'£': "GBP",
	'¥': "JPY",
	'¢': "cent",

	// Mathematical operators
	'×': "x",
	'÷': "/",
	'≠': "!=",
	'≤': "<=",
	'≥': ">=",
	'≈': "~=",
}

// decomposerPool holds NFD+strip-marks transformer chains. Transformer
// chains carry state and are not safe for concurrent use.
var decomposerPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
		)
	},
}

// Normalize converts s to its closest printable-ASCII form. It is
// deterministic, total, and idempotent: normalizing already-normalized
// text returns it unchanged.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if rep, ok := replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		if isKeptASCII(r) {
			b.WriteRune(r)
			continue
		}

		// Strip diacritics; keep the base character only when it lands
		// in printable ASCII, otherwise drop the rune entirely.
		tr := decomposerPool.Get().(transform.Transformer)
		base, _, err := transform.String(tr, string(r))
		decomposerPool.Put(tr)
		if err != nil || base == "" {
			continue
		}
		if c := base[0]; c >= 32 && c <= 126 {
			b.WriteString(base)
		}
	}

	// Collapse whitespace runs and trim.
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeMap applies Normalize to every value of the mapping.
func NormalizeMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// isKeptASCII reports whether r passes through untouched: printable ASCII
// plus tab, LF, and CR (which the whitespace collapse later folds away).
func isKeptASCII(r rune) bool {
	return (r >= 32 && r <= 126) || r == '\t' || r == '\n' || r == '\r'
}
