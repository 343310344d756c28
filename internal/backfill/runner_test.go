package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListWithoutInvoiceDate(ctx context.Context, afterID int64, limit int) ([]repository.DocumentText, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.DocumentText), args.Error(1)
}

func (m *mockStore) SetInvoiceDate(ctx context.Context, id int64, date time.Time) error {
	args := m.Called(ctx, id, date)
	return args.Error(0)
}

// tableStore keeps documents the way the paperless_documents query sees
// them: filtered on a missing date, ordered by id and cut at the limit.
type tableStore struct {
	docs  []repository.DocumentText
	dates map[int64]time.Time
	lists int
}

func (s *tableStore) ListWithoutInvoiceDate(_ context.Context, afterID int64, limit int) ([]repository.DocumentText, error) {
	s.lists++
	var out []repository.DocumentText
	for _, d := range s.docs {
		if _, dated := s.dates[d.ID]; dated || d.ID <= afterID {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *tableStore) SetInvoiceDate(_ context.Context, id int64, date time.Time) error {
	s.dates[id] = date
	return nil
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) IndexDocument(ctx context.Context, doc search.IndexedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockIndexer) SetInvoiceDate(ctx context.Context, paperlessID int64, date time.Time) error {
	args := m.Called(ctx, paperlessID, date)
	return args.Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var docs = []repository.DocumentText{
	{ID: 1, PaperlessDocumentID: 101, Fulltext: "Rechnungsdatum 02.11.2020"},
	{ID: 2, PaperlessDocumentID: 102, Fulltext: "random text with no date"},
	{ID: 3, PaperlessDocumentID: 103, Fulltext: "   "},
	{ID: 4, PaperlessDocumentID: 104, Fulltext: "Invoice Date Oct 25, 2025"},
}

func newRunner(t *testing.T, store Store, idx *mockIndexer) *Runner {
	var indexer search.Indexer
	if idx != nil {
		indexer = idx
	}
	return NewRunner(store, dateextract.MustNewExtractor(dateextract.DefaultConfig()), indexer, logger.NewTestLogger(t))
}

// ==========================
// Run
// ==========================

func TestRun_UpdatesAndSkips(t *testing.T) {
	store := &mockStore{}
	idx := &mockIndexer{}
	store.On("ListWithoutInvoiceDate", mock.Anything, int64(0), DefaultPageSize).Return(docs, nil).Once()
	store.On("SetInvoiceDate", mock.Anything, int64(1), day(2020, 11, 2)).Return(nil)
	store.On("SetInvoiceDate", mock.Anything, int64(4), day(2025, 10, 25)).Return(nil)
	idx.On("SetInvoiceDate", mock.Anything, int64(101), day(2020, 11, 2)).Return(nil)
	idx.On("SetInvoiceDate", mock.Anything, int64(104), day(2025, 10, 25)).Return(errors.New("index down"))

	sum, err := newRunner(t, store, idx).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 4, sum.Scanned)
	assert.Equal(t, 2, sum.Updated)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	store.AssertExpectations(t)
	idx.AssertExpectations(t)
}

func TestRun_FailuresAreCountedAndLoopContinues(t *testing.T) {
	store := &mockStore{}
	store.On("ListWithoutInvoiceDate", mock.Anything, int64(0), 10).Return(docs, nil).Once()
	store.On("SetInvoiceDate", mock.Anything, int64(1), mock.Anything).Return(repository.ErrInsertFailed)
	store.On("SetInvoiceDate", mock.Anything, int64(4), mock.Anything).Return(nil)

	sum, err := newRunner(t, store, nil).Run(context.Background(), Options{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Updated)
	store.AssertNumberOfCalls(t, "SetInvoiceDate", 2)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	store := &mockStore{}
	idx := &mockIndexer{}
	store.On("ListWithoutInvoiceDate", mock.Anything, int64(0), DefaultPageSize).Return(docs, nil).Once()

	sum, err := newRunner(t, store, idx).Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, sum.DryRun)
	assert.Equal(t, 2, sum.Updated)
	store.AssertNotCalled(t, "SetInvoiceDate", mock.Anything, mock.Anything, mock.Anything)
	idx.AssertNotCalled(t, "SetInvoiceDate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ListError(t *testing.T) {
	store := &mockStore{}
	store.On("ListWithoutInvoiceDate", mock.Anything, int64(0), DefaultPageSize).Return(nil, repository.ErrQueryFailed)

	_, err := newRunner(t, store, nil).Run(context.Background(), Options{})
	assert.ErrorIs(t, err, repository.ErrQueryFailed)
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	store := &mockStore{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newRunner(t, store, nil).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Scanned)
	store.AssertNotCalled(t, "ListWithoutInvoiceDate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ResumesBehindUndateableDocuments(t *testing.T) {
	store := &tableStore{
		docs: []repository.DocumentText{
			{ID: 1, PaperlessDocumentID: 101, Fulltext: "no date here"},
			{ID: 2, PaperlessDocumentID: 102, Fulltext: "none here either"},
			{ID: 3, PaperlessDocumentID: 103, Fulltext: "Rechnungsdatum 02.11.2020"},
		},
		dates: map[int64]time.Time{},
	}
	runner := newRunner(t, store, nil)

	first, err := runner.Run(context.Background(), Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Scanned)
	assert.Equal(t, 2, first.Skipped)
	assert.Equal(t, int64(2), first.LastID)

	second, err := runner.Run(context.Background(), Options{Limit: 2, AfterID: first.LastID})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Scanned)
	assert.Equal(t, 1, second.Updated)
	assert.Equal(t, int64(3), second.LastID)
	assert.Equal(t, day(2020, 11, 2), store.dates[3])
}

func TestRun_PagesThroughAllDocuments(t *testing.T) {
	store := &tableStore{
		docs: []repository.DocumentText{
			{ID: 1, Fulltext: "no date here"},
			{ID: 2, Fulltext: "none here either"},
			{ID: 3, Fulltext: "Rechnungsdatum 02.11.2020"},
			{ID: 4, Fulltext: "still nothing"},
			{ID: 5, Fulltext: "Invoice Date Oct 25, 2025"},
		},
		dates: map[int64]time.Time{},
	}

	sum, err := newRunner(t, store, nil).Run(context.Background(), Options{PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Scanned)
	assert.Equal(t, 2, sum.Updated)
	assert.Equal(t, 3, sum.Skipped)
	assert.Equal(t, int64(5), sum.LastID)
	assert.Equal(t, 3, store.lists)
	assert.Len(t, store.dates, 2)
}
