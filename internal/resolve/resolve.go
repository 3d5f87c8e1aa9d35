// Package resolve locates a customer's document folder under a root folder
// whose children carry free-text "<name>, <phone>" titles.
package resolve

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/pkg/drive"
)

// Lister is the document-store query capability the resolver consumes.
// drive.Client satisfies it.
type Lister interface {
	List(ctx context.Context, q drive.Query, pageToken string) (*drive.FileList, error)
}

// Tier identifies the cascade stage that produced a match.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierSurname
	TierPhone
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSurname:
		return "surname"
	case TierPhone:
		return "phone"
	default:
		return "none"
	}
}

// MarshalText renders the tier by name in JSON and YAML reports.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Target is the identity being looked up.
type Target struct {
	// RootID is the folder whose direct children are searched.
	RootID string
	// Title is the expected canonical folder title, see naming.BuildTitle.
	Title string
	// Phone is the expected canonical phone.
	Phone string
}

// Match is a resolved folder and the tier that found it.
type Match struct {
	Folder drive.File `json:"folder" yaml:"folder"`
	Tier   Tier       `json:"tier" yaml:"tier"`
}

// Matcher is one stage of the cascade. A nil file with a nil error means
// the stage found nothing and the next one should run.
type Matcher interface {
	Tier() Tier
	Match(ctx context.Context, l Lister, t Target) (*drive.File, error)
}

// DefaultMatchers is the exact, surname and phone-pattern cascade.
func DefaultMatchers() []Matcher {
	return []Matcher{ExactMatcher{}, SurnameMatcher{}, PhoneMatcher{}}
}

// Resolver runs matchers in order and stops at the first hit.
type Resolver struct {
	lister   Lister
	matchers []Matcher
}

// NewResolver creates a resolver over l. Without matchers it uses
// DefaultMatchers.
func NewResolver(l Lister, matchers ...Matcher) *Resolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Resolver{lister: l, matchers: matchers}
}

// Resolve returns the folder for t, or nil when no tier finds one.
// Document-store failures abort the cascade and are returned.
func (r *Resolver) Resolve(ctx context.Context, t Target) (*Match, error) {
	if t.RootID == "" {
		return nil, eris.New("resolve: root folder id is required")
	}
	for _, m := range r.matchers {
		f, err := m.Match(ctx, r.lister, t)
		if err != nil {
			return nil, eris.Wrapf(err, "resolve: %s tier", m.Tier())
		}
		if f == nil {
			continue
		}
		zap.L().Debug("resolve: folder matched",
			zap.String("tier", m.Tier().String()),
			zap.String("folder_id", f.ID),
			zap.String("folder_name", f.Name),
		)
		return &Match{Folder: *f, Tier: m.Tier()}, nil
	}
	zap.L().Debug("resolve: no folder matched", zap.String("title", t.Title))
	return nil, nil
}

// listAll follows page tokens until the listing is exhausted.
func listAll(ctx context.Context, l Lister, q drive.Query) ([]drive.File, error) {
	var (
		out   []drive.File
		token string
	)
	for {
		page, err := l.List(ctx, q, token)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Files...)
		if page.NextPageToken == "" || page.NextPageToken == token {
			return out, nil
		}
		token = page.NextPageToken
	}
}

// dedupByID keeps the first occurrence of every file id.
func dedupByID(files []drive.File) []drive.File {
	seen := make(map[string]struct{}, len(files))
	out := files[:0:0]
	for _, f := range files {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}
