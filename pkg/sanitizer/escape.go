// Package sanitizer provides the escaping helpers applied to form input
// before it is rendered into notification emails or exported to
// spreadsheet-consuming tools. All functions are pure and total.
package sanitizer

import "strings"

// htmlEscaper escapes the five HTML special characters. A single-pass
// replacer cannot double-encode the ampersands it inserts.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// htmlTextEscaper leaves apostrophes alone. They are harmless in HTML
// text nodes and encoding them makes names like "Rico's" read badly.
var htmlTextEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes &, <, >, double quote, and apostrophe to HTML
// entities. Use for values embedded in HTML attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeHTMLText escapes like EscapeHTML but preserves apostrophes.
// Use for values embedded in HTML text content.
func EscapeHTMLText(s string) string {
	return htmlTextEscaper.Replace(s)
}

// GuardFormula neutralizes spreadsheet formula injection. When the
// trimmed string starts with =, +, -, or @ the trimmed value is prefixed
// with a literal single quote, forcing spreadsheet tools to treat the
// cell as text. Only the leading character matters: an email address with
// a mid-string @ is returned unchanged.
func GuardFormula(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + trimmed
	}
	return s
}

// EscapeHTMLSafe applies EscapeHTML followed by GuardFormula, covering
// both HTML display and spreadsheet export.
func EscapeHTMLSafe(s string) string {
	return GuardFormula(EscapeHTML(s))
}

// EscapeHTMLMap returns a copy of m with every value passed through
// EscapeHTML.
func EscapeHTMLMap(m map[string]string) map[string]string {
	return mapValues(m, EscapeHTML)
}

// GuardFormulaMap returns a copy of m with every value passed through
// GuardFormula.
func GuardFormulaMap(m map[string]string) map[string]string {
	return mapValues(m, GuardFormula)
}

// EscapeHTMLSafeMap returns a copy of m with every value passed through
// EscapeHTMLSafe.
func EscapeHTMLSafeMap(m map[string]string) map[string]string {
	return mapValues(m, EscapeHTMLSafe)
}

func mapValues(m map[string]string, fn func(string) string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fn(v)
	}
	return out
}
