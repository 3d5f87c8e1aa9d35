// Package naming canonicalizes the free-text person names and phone numbers
// that key a customer across the CRM and the document store.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Apostrophe is the canonical apostrophe every look-alike is folded into.
const Apostrophe = '\''

// apostrophes lists code points people (and keyboards) type in place of an
// ASCII apostrophe inside names such as Мельни'к or O'Brien.
var apostrophes = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"`", "'",
	"ʼ", "'", // modifier letter apostrophe
	"ʹ", "'", // modifier letter prime
	"′", "'", // prime
	"＇", "'", // fullwidth apostrophe
	"ꞌ", "'", // latin small letter saltillo
)

var nameSeparators = regexp.MustCompile(`[,.;]+`)

// PersonName is a CRM contact name split the way the CRM stores it.
type PersonName struct {
	Last   string `json:"last,omitempty" yaml:"last,omitempty"`
	First  string `json:"first,omitempty" yaml:"first,omitempty"`
	Middle string `json:"middle,omitempty" yaml:"middle,omitempty"`
}

// FullName normalizes each part and joins the non-empty ones as
// "Last First Middle".
func (p PersonName) FullName() string {
	parts := make([]string, 0, 3)
	for _, raw := range []string{p.Last, p.First, p.Middle} {
		if n := NormalizeName(raw); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeName returns the canonical form of a free-text name: look-alike
// apostrophes unified, Unicode compatibility-normalized with stray combining
// marks dropped, punctuation turned into spaces, whitespace collapsed, and
// every token title-cased per hyphen and apostrophe segment.
//
// NormalizeName is idempotent.
func NormalizeName(raw string) string {
	s := unifyApostrophes(collapseSpaces(unifyApostrophes(raw)))
	s = nameSeparators.ReplaceAllString(s, " ")
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = titleToken(tok)
	}
	return strings.Join(tokens, " ")
}

func unifyApostrophes(s string) string {
	return apostrophes.Replace(s)
}

// collapseSpaces applies NFKC, removes combining marks that did not compose
// into a precomposed letter (stress accents on Cyrillic vowels, mostly),
// replaces non-breaking spaces and collapses whitespace runs.
func collapseSpaces(s string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = norm.NFKC.String(s)
	}
	out = strings.ReplaceAll(out, "\u00a0", " ")
	return strings.Join(strings.Fields(out), " ")
}

// titleToken title-cases each hyphen segment and each apostrophe
// sub-segment of tok. A Cyrillic letter following an apostrophe stays lower
// case: there the apostrophe is a separating sign inside one word
// (В'ячеслав), not the join of two name parts (O'Brien).
func titleToken(tok string) string {
	segments := strings.Split(tok, "-")
	for i, seg := range segments {
		subs := strings.Split(seg, string(Apostrophe))
		for j, sub := range subs {
			if j > 0 && startsCyrillic(sub) {
				subs[j] = strings.ToLower(sub)
				continue
			}
			subs[j] = titleCase(sub)
		}
		segments[i] = strings.Join(subs, string(Apostrophe))
	}
	return strings.Join(segments, "-")
}

// titleCase upper-cases the first code point and lower-cases the rest.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

func startsCyrillic(s string) bool {
	for _, r := range s {
		return unicode.Is(unicode.Cyrillic, r)
	}
	return false
}

// NameTokens returns the lower-cased whitespace tokens of the name part of
// s, i.e. everything before its first comma.
func NameTokens(s string) map[string]struct{} {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(collapseSpaces(unifyApostrophes(s))) {
		out[strings.ToLower(tok)] = struct{}{}
	}
	return out
}
