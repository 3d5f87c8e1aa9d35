package resolve

import (
	"context"
	"strings"

	"github.com/zvilnymo/casecheck/internal/naming"
	"github.com/zvilnymo/casecheck/pkg/drive"
)

// ExactMatcher finds a child folder named byte-for-byte like the expected
// title.
type ExactMatcher struct{}

func (ExactMatcher) Tier() Tier { return TierExact }

func (ExactMatcher) Match(ctx context.Context, l Lister, t Target) (*drive.File, error) {
	if t.Title == "" {
		return nil, nil
	}
	page, err := l.List(ctx, drive.Query{
		ParentID:   t.RootID,
		NameEquals: t.Title,
		MimeType:   drive.FolderMime,
		PageSize:   1,
	}, "")
	if err != nil {
		return nil, err
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	return &page.Files[0], nil
}

// SurnameMatcher finds child folders whose name contains the surname of the
// expected title and whose digits contain the expected subscriber number.
// Without an expected phone any surname hit qualifies, so a folder named
// after a namesake can match; folders that carry no phone at all are the
// case this tier exists for.
type SurnameMatcher struct {
	// Pick chooses among qualifying folders. Defaults to LongestName.
	Pick []Compare
}

func (SurnameMatcher) Tier() Tier { return TierSurname }

func (m SurnameMatcher) Match(ctx context.Context, l Lister, t Target) (*drive.File, error) {
	surname := Surname(t.Title)
	if surname == "" {
		return nil, nil
	}
	files, err := listAll(ctx, l, drive.Query{
		ParentID:        t.RootID,
		MimeType:        drive.FolderMime,
		NameContainsAny: []string{surname},
		PageSize:        100,
	})
	if err != nil {
		return nil, err
	}

	if body := naming.PhoneBody(t.Phone); body != "" {
		kept := files[:0:0]
		for _, f := range files {
			if strings.Contains(naming.Digits(f.Name), body) {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	pick := m.Pick
	if len(pick) == 0 {
		pick = []Compare{LongestName}
	}
	return Best(files, pick...), nil
}

// Surname returns the first token of the name part of a folder title.
func Surname(title string) string {
	name := naming.ParseTitle(title).Name
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i]
	}
	return name
}

// PhoneMatcher searches child folders for common spellings of the expected
// phone and keeps only those whose title encodes exactly that phone.
type PhoneMatcher struct{}

func (PhoneMatcher) Tier() Tier { return TierPhone }

func (PhoneMatcher) Match(ctx context.Context, l Lister, t Target) (*drive.File, error) {
	body := naming.PhoneBody(t.Phone)
	if body == "" {
		return nil, nil
	}
	var terms []string
	for _, v := range PhoneVariants(body) {
		if !drive.Unsafe(v) {
			terms = append(terms, v)
		}
	}
	files, err := listAll(ctx, l, drive.Query{
		ParentID:        t.RootID,
		MimeType:        drive.FolderMime,
		NameContainsAny: terms,
		PageSize:        100,
	})
	if err != nil {
		return nil, err
	}

	var confirmed []drive.File
	for _, f := range dedupByID(files) {
		if p, ok := naming.ExtractPhone(f.Name); ok && p == t.Phone {
			confirmed = append(confirmed, f)
		}
	}

	name := naming.ParseTitle(t.Title).Name
	if len(confirmed) <= 1 || name == "" {
		return Best(confirmed, LongestName), nil
	}
	return Best(confirmed, SharedTokens(name), LongestName), nil
}

// PhoneVariants lists the ways people write a 9-digit subscriber number in
// folder titles: "67 123 4567", "123 4567", "4567", "671234567",
// "+380 67 123 4567" and "+380671234567".
func PhoneVariants(body string) []string {
	if len(body) != naming.BodyLen {
		return nil
	}
	op, mid, last := body[:2], body[2:5], body[5:]
	return []string{
		op + " " + mid + " " + last,
		mid + " " + last,
		last,
		body,
		naming.NationalPrefix + " " + op + " " + mid + " " + last,
		naming.NationalPrefix + body,
	}
}
