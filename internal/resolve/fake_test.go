package resolve

import (
	"context"
	"strconv"

	"github.com/zvilnymo/casecheck/pkg/drive"
)

// fakeStore is an in-memory document store evaluating queries with
// drive.Query.Matches. It pages results pageSize at a time.
type fakeStore struct {
	files    []drive.File
	pageSize int
	queries  []drive.Query
	err      error
}

func (s *fakeStore) List(_ context.Context, q drive.Query, pageToken string) (*drive.FileList, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	var hits []drive.File
	for _, f := range s.files {
		if q.Matches(f) {
			hits = append(hits, f)
		}
	}
	size := s.pageSize
	if size <= 0 || (q.PageSize > 0 && q.PageSize < size) {
		size = q.PageSize
	}
	if size <= 0 {
		size = len(hits) + 1
	}
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := min(start+size, len(hits))
	out := &drive.FileList{Files: hits[start:end]}
	if end < len(hits) {
		out.NextPageToken = strconv.Itoa(end)
	}
	return out, nil
}

func folder(id, name string) drive.File {
	return drive.File{ID: id, Name: name, MimeType: drive.FolderMime, Parents: []string{"root"}}
}

func doc(id, name, mime, parent string) drive.File {
	return drive.File{ID: id, Name: name, MimeType: mime, Parents: []string{parent}}
}
