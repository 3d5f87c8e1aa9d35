package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zvilnymo/casecheck/internal/naming"
	"github.com/zvilnymo/casecheck/pkg/drive"
	"github.com/zvilnymo/casecheck/pkg/drive/mocks"
)

var melnyk = naming.PersonName{Last: "мельник", First: "петро"}

func target(name naming.PersonName, phone string) Target {
	return Target{
		RootID: "root",
		Title:  naming.BuildTitle(name, phone),
		Phone:  naming.NormalizePhone(phone),
	}
}

func TestResolve_ExactWinsOverWeakerTiers(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("fuzzy", "Мельник Петро Іванович, 380 67 123 4567 (архів)"),
		folder("exact", "Мельник Петро, +380671234567"),
		folder("phone", "Клієнт 067 123 45 67"),
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "exact", m.Folder.ID)
	assert.Equal(t, TierExact, m.Tier)
	assert.Len(t, store.queries, 1)
}

func TestResolve_SpacedPhoneFolder(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("f1", "Мельник Петро, 380 67 123 4567"),
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "+38 (067) 123-45-67"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "f1", m.Folder.ID)
	assert.Equal(t, TierSurname, m.Tier)
}

func TestResolve_SurnameTierPrefersLongestName(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("short", "Мельник 671234567"),
		folder("long", "Мельник Петро Іванович 671234567"),
		folder("other", "Мельник Олег 501112233"),
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "long", m.Folder.ID)
	assert.Equal(t, TierSurname, m.Tier)
}

func TestResolve_SurnameTierPaginates(t *testing.T) {
	store := &fakeStore{pageSize: 1, files: []drive.File{
		folder("a", "Мельник А 501112233"),
		folder("b", "Мельник Б 502223344"),
		folder("c", "Мельник Петро 671234567"),
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "c", m.Folder.ID)
}

func TestResolve_PhoneTierConfirmsExactPhone(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		// shares the last four digits only
		folder("partial", "Шевченко, 380 50 999 4567"),
		folder("right", "Шевченко Тарас, 067 123 4567"),
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "right", m.Folder.ID)
	assert.Equal(t, TierPhone, m.Tier)

	p, ok := naming.ExtractPhone(m.Folder.Name)
	require.True(t, ok)
	assert.Equal(t, "+380671234567", p)
}

func TestResolve_PhoneTierTokenOverlap(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("stranger", "Коваленко Олександр Миколайович, 0671234567"),
		folder("namesake", "Петро Мельнік, 0671234567"),
	}}
	tgt := target(naming.PersonName{Last: "Мельнік", First: "Петро"}, "0671234567")
	// Surname tier finds "Мельнік" in namesake already; drop it to exercise the phone tier.
	m, err := NewResolver(store, ExactMatcher{}, PhoneMatcher{}).Resolve(context.Background(), tgt)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "namesake", m.Folder.ID)
}

func TestResolve_PhoneTierWithoutNameUsesLongest(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("a", "Ігор, 0671234567"),
		folder("b", "Ігор Петренко, 0671234567"),
	}}
	tgt := Target{RootID: "root", Phone: "+380671234567"}
	m, err := NewResolver(store).Resolve(context.Background(), tgt)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "b", m.Folder.ID)
	assert.Equal(t, TierPhone, m.Tier)
}

func TestResolve_NotFound(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("x", "Бондар Ольга, 0501112233"),
		doc("d", "Мельник Петро, 0671234567", drive.DocxMime, "root"),
		{ID: "trash", Name: "Мельник Петро, +380671234567", MimeType: drive.FolderMime, Parents: []string{"root"}, Trashed: true},
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolve_OnlyDirectChildren(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		{ID: "nested", Name: "Мельник Петро, +380671234567", MimeType: drive.FolderMime, Parents: []string{"elsewhere"}},
	}}
	m, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolve_PropagatesStoreError(t *testing.T) {
	boom := &drive.APIError{StatusCode: 403, Message: "forbidden"}
	store := &fakeStore{err: boom}
	_, err := NewResolver(store).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.Error(t, err)

	var apiErr *drive.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
}

func TestResolve_RequiresRoot(t *testing.T) {
	_, err := NewResolver(&fakeStore{}).Resolve(context.Background(), Target{Title: "x"})
	assert.Error(t, err)
}

func TestResolve_ExactShortCircuits(t *testing.T) {
	client := mocks.NewMockClient(t)
	exact := folder("exact", "Мельник Петро, +380671234567")
	client.On("List", mock.Anything, mock.MatchedBy(func(q drive.Query) bool {
		return q.NameEquals == "Мельник Петро, +380671234567" && q.MimeType == drive.FolderMime
	}), "").Return(&drive.FileList{Files: []drive.File{exact}}, nil).Once()

	m, err := NewResolver(client).Resolve(context.Background(), target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "exact", m.Folder.ID)
}

func TestSurname(t *testing.T) {
	assert.Equal(t, "Мельник", Surname("мельник петро, +380671234567"))
	assert.Equal(t, "Мельник", Surname("Мельник"))
	assert.Equal(t, "", Surname(""))
}

func TestPhoneVariants(t *testing.T) {
	assert.Equal(t, []string{
		"67 123 4567",
		"123 4567",
		"4567",
		"671234567",
		"+380 67 123 4567",
		"+380671234567",
	}, PhoneVariants("671234567"))
	assert.Nil(t, PhoneVariants("123"))
}

func TestPhoneMatcher_QueryIsOrOfVariants(t *testing.T) {
	store := &fakeStore{}
	_, err := PhoneMatcher{}.Match(context.Background(), store, target(melnyk, "0671234567"))
	require.NoError(t, err)
	require.Len(t, store.queries, 1)
	q := store.queries[0]
	assert.Len(t, q.NameContainsAny, 6)
	assert.Equal(t, drive.FolderMime, q.MimeType)
	assert.Contains(t, q.String(), " or ")
}

func TestPhoneMatcher_PlaceholderSkipsQuery(t *testing.T) {
	store := &fakeStore{}
	f, err := PhoneMatcher{}.Match(context.Background(), store, Target{RootID: "root", Phone: naming.NationalPrefix})
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Empty(t, store.queries)
}

func TestSurnameMatcher_PlaceholderPhoneKeepsAllHits(t *testing.T) {
	store := &fakeStore{files: []drive.File{
		folder("a", "Мельник Петро"),
		folder("b", "Мельник Петро Іванович"),
	}}
	tgt := Target{RootID: "root", Title: "Мельник Петро, +380", Phone: naming.NationalPrefix}
	f, err := SurnameMatcher{}.Match(context.Background(), store, tgt)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "b", f.ID)
}
