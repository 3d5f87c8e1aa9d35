package resolve

import (
	"unicode/utf8"

	"github.com/zvilnymo/casecheck/internal/naming"
	"github.com/zvilnymo/casecheck/pkg/drive"
)

// Compare ranks two candidate folders: positive when a is preferable to b,
// negative when b is, zero when they tie.
type Compare func(a, b drive.File) int

// LongestName prefers the folder with more characters in its name.
func LongestName(a, b drive.File) int {
	return utf8.RuneCountInString(a.Name) - utf8.RuneCountInString(b.Name)
}

// SharedTokens prefers the folder whose name part shares more lower-cased
// tokens with expected.
func SharedTokens(expected string) Compare {
	want := naming.NameTokens(expected)
	overlap := func(f drive.File) int {
		n := 0
		for tok := range naming.NameTokens(f.Name) {
			if _, ok := want[tok]; ok {
				n++
			}
		}
		return n
	}
	return func(a, b drive.File) int {
		return overlap(a) - overlap(b)
	}
}

// Best returns the top candidate under cmps, applied in order until one
// breaks the tie. Remaining ties go to the earliest candidate. Best returns
// nil for no candidates.
func Best(files []drive.File, cmps ...Compare) *drive.File {
	if len(files) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(files); i++ {
		for _, cmp := range cmps {
			c := cmp(files[i], files[best])
			if c > 0 {
				best = i
			}
			if c != 0 {
				break
			}
		}
	}
	f := files[best]
	return &f
}
