package resolve

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/zvilnymo/casecheck/pkg/drive"
)

// PlanFinder locates the customer's plan document inside their folder.
type PlanFinder struct {
	Lister Lister
	// ExactName is tried first, as a full file name.
	ExactName string
	// Pattern is the name fragment searched for when no exact hit exists.
	Pattern string
}

// mimeRank orders plan candidates: Word upload, then Google Doc, then
// anything else.
func mimeRank(mime string) int {
	switch mime {
	case drive.DocxMime:
		return 3
	case drive.GoogleDocMime:
		return 2
	default:
		return 1
	}
}

// Find returns the plan document in folderID, or nil when there is none.
func (p PlanFinder) Find(ctx context.Context, folderID string) (*drive.File, error) {
	if p.ExactName != "" {
		page, err := p.Lister.List(ctx, drive.Query{
			ParentID:    folderID,
			NameEquals:  p.ExactName,
			NotMimeType: drive.FolderMime,
			PageSize:    5,
		}, "")
		if err != nil {
			return nil, eris.Wrap(err, "plan: exact lookup")
		}
		if len(page.Files) > 0 {
			return &page.Files[0], nil
		}
	}
	if p.Pattern == "" {
		return nil, nil
	}

	page, err := p.Lister.List(ctx, drive.Query{
		ParentID:        folderID,
		NameContainsAny: []string{p.Pattern},
		NotMimeType:     drive.FolderMime,
		PageSize:        20,
	}, "")
	if err != nil {
		return nil, eris.Wrap(err, "plan: pattern lookup")
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	files := slices.Clone(page.Files)
	slices.SortStableFunc(files, func(a, b drive.File) int {
		return mimeRank(b.MimeType) - mimeRank(a.MimeType)
	})
	return &files[0], nil
}
