package naming

import "strings"

const titleSeparator = ", "

// Title is the decoded form of a "<name>, <phone>" folder title.
type Title struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
}

// String encodes t back into folder-title form.
func (t Title) String() string {
	return t.Name + titleSeparator + t.Phone
}

// BuildTitle returns the canonical folder title for a contact: the full
// normalized name, a comma and the canonical phone. Folder creation and
// folder search must both go through it.
func BuildTitle(name PersonName, phone string) string {
	return Title{Name: name.FullName(), Phone: NormalizePhone(phone)}.String()
}

// ParseTitle decodes a folder title into its canonical name and phone.
// Without a comma the whole title is a name and the phone is the
// placeholder.
func ParseTitle(title string) Title {
	title = collapseSpaces(unifyApostrophes(title))
	left, right, ok := strings.Cut(title, ",")
	if !ok {
		return Title{Name: NormalizeName(title), Phone: NationalPrefix}
	}
	t := Title{Name: NormalizeName(left)}
	if d := Digits(right); d != "" {
		t.Phone = NormalizePhone(d)
	} else {
		t.Phone = NormalizePhone(strings.TrimSpace(right))
	}
	return t
}

// SameTitle compares two folder titles by their decoded name and phone
// rather than by raw text.
func SameTitle(a, b string) bool {
	return ParseTitle(a) == ParseTitle(b)
}
