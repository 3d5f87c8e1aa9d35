package drive

import "strings"

// Mime types the resolver filters on.
const (
	FolderMime    = "application/vnd.google-apps.folder"
	GoogleDocMime = "application/vnd.google-apps.document"
	DocxMime      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Query is a structured files.list predicate. Zero fields are omitted;
// NameContainsAny terms are OR-combined. Trashed files are excluded unless
// IncludeTrashed is set.
type Query struct {
	ParentID        string
	NameEquals      string
	NameContainsAny []string
	MimeType        string
	NotMimeType     string
	IncludeTrashed  bool

	// PageSize is passed through to files.list, not rendered into q.
	PageSize int
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a Drive query string literal.
func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// Unsafe reports whether text carries characters that change the meaning
// of a query literal unless escaped.
func Unsafe(text string) bool {
	return strings.ContainsAny(text, `'\`)
}

// String renders q in Drive "q" syntax.
func (q Query) String() string {
	var clauses []string
	if q.ParentID != "" {
		clauses = append(clauses, quote(q.ParentID)+" in parents")
	}
	if q.NameEquals != "" {
		clauses = append(clauses, "name = "+quote(q.NameEquals))
	}
	if q.MimeType != "" {
		clauses = append(clauses, "mimeType = "+quote(q.MimeType))
	}
	if q.NotMimeType != "" {
		clauses = append(clauses, "mimeType != "+quote(q.NotMimeType))
	}
	if !q.IncludeTrashed {
		clauses = append(clauses, "trashed = false")
	}
	switch len(q.NameContainsAny) {
	case 0:
	case 1:
		clauses = append(clauses, "name contains "+quote(q.NameContainsAny[0]))
	default:
		terms := make([]string, len(q.NameContainsAny))
		for i, t := range q.NameContainsAny {
			terms[i] = "name contains " + quote(t)
		}
		clauses = append(clauses, "("+strings.Join(terms, " or ")+")")
	}
	return strings.Join(clauses, " and ")
}

// Matches evaluates q against a file the way Drive would, treating
// "contains" as a plain substring test. Drive itself matches name prefixes
// per word, so Matches is at least as permissive.
func (q Query) Matches(f File) bool {
	if q.ParentID != "" && !f.HasParent(q.ParentID) {
		return false
	}
	if q.NameEquals != "" && f.Name != q.NameEquals {
		return false
	}
	if q.MimeType != "" && f.MimeType != q.MimeType {
		return false
	}
	if q.NotMimeType != "" && f.MimeType == q.NotMimeType {
		return false
	}
	if !q.IncludeTrashed && f.Trashed {
		return false
	}
	if len(q.NameContainsAny) == 0 {
		return true
	}
	for _, t := range q.NameContainsAny {
		if strings.Contains(f.Name, t) {
			return true
		}
	}
	return false
}
