package history

import (
	"context"
	"regexp"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
)

// NoStage is shown for an empty stage id.
const NoStage = "—"

var stagePrefix = regexp.MustCompile(`^C(\d+):`)

// ParseStageID extracts the pipeline category from ids such as "C1:NEW".
// Ids of the default pipeline carry no prefix and report ok=false.
func ParseStageID(stageID string) (category int, ok bool) {
	m := stagePrefix.FindStringSubmatch(stageID)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// LabelSource fetches the stage-id to label table of one pipeline category.
type LabelSource interface {
	StageLabels(ctx context.Context, categoryID int) (map[string]string, error)
}

// LabelStore holds fetched label tables.
type LabelStore interface {
	Load(categoryID int) (map[string]string, bool)
	Store(categoryID int, labels map[string]string)
}

// MemoryStore is a process-lifetime LabelStore. Entries are never evicted:
// stage labels change only when an admin edits the pipeline.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[int]map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[int]map[string]string)}
}

// Load returns the table cached for categoryID.
func (s *MemoryStore) Load(categoryID int) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels, ok := s.m[categoryID]
	return labels, ok
}

// Store caches labels for categoryID.
func (s *MemoryStore) Store(categoryID int, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[categoryID] = labels
}

// Labels resolves stage ids to labels, fetching each category's table once.
// Concurrent misses for the same category share one fetch. Failed fetches
// are not cached.
type Labels struct {
	src   LabelSource
	store LabelStore
	group singleflight.Group
}

// NewLabels creates a resolver backed by store, or by a fresh MemoryStore
// when store is nil.
func NewLabels(src LabelSource, store LabelStore) *Labels {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Labels{src: src, store: store}
}

// Category returns the label table of a pipeline category.
func (l *Labels) Category(ctx context.Context, categoryID int) (map[string]string, error) {
	if labels, ok := l.store.Load(categoryID); ok {
		return labels, nil
	}
	v, err, _ := l.group.Do(strconv.Itoa(categoryID), func() (any, error) {
		if labels, ok := l.store.Load(categoryID); ok {
			return labels, nil
		}
		labels, err := l.src.StageLabels(ctx, categoryID)
		if err != nil {
			return nil, eris.Wrapf(err, "history: stage labels for category %d", categoryID)
		}
		l.store.Store(categoryID, labels)
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// Lookup labels a stage id within a known category, falling back to the id.
func (l *Labels) Lookup(ctx context.Context, categoryID int, stageID string) (string, error) {
	if stageID == "" {
		return NoStage, nil
	}
	labels, err := l.Category(ctx, categoryID)
	if err != nil {
		return stageID, err
	}
	if label, ok := labels[stageID]; ok && label != "" {
		return label, nil
	}
	return stageID, nil
}

// Label labels a stage id using the category encoded in it. Ids without a
// category prefix are returned as is. On a fetch error the id is returned
// together with the error.
func (l *Labels) Label(ctx context.Context, stageID string) (string, error) {
	if stageID == "" {
		return NoStage, nil
	}
	category, ok := ParseStageID(stageID)
	if !ok {
		return stageID, nil
	}
	return l.Lookup(ctx, category, stageID)
}
