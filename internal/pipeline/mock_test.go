package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/seen"
	"github.com/flipscout/flipscout/pkg/ebay"
)

// mockSource is a hand-rolled ebay.Client double.
type mockSource struct {
	summariesByQuery map[string][]model.Listing
	details          map[string]*model.Listing
	failDetail       map[string]bool
	searchErr        error

	searchCalls []ebay.SearchRequest
	detailCalls []string
}

func (m *mockSource) SearchItems(_ context.Context, req ebay.SearchRequest) (*ebay.SearchResponse, error) {
	m.searchCalls = append(m.searchCalls, req)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	items := m.summariesByQuery[req.Query]
	return &ebay.SearchResponse{Total: len(items), ItemSummaries: items}, nil
}

func (m *mockSource) GetItem(_ context.Context, itemID string) (*model.Listing, error) {
	m.detailCalls = append(m.detailCalls, itemID)
	if m.failDetail[itemID] {
		return nil, errors.New("item fetch blew up")
	}
	item, ok := m.details[itemID]
	if !ok {
		return nil, errors.New("no such item")
	}
	return item, nil
}

// mockStore is an in-memory seen.Store double.
type mockStore struct {
	entries  map[string]time.Time
	migrated int
	hasErr   error
}

func newMockStore(preseen ...string) *mockStore {
	s := &mockStore{entries: make(map[string]time.Time)}
	for _, id := range preseen {
		s.entries[id] = time.Now()
	}
	return s
}

func (s *mockStore) Has(_ context.Context, itemID string) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	_, ok := s.entries[itemID]
	return ok, nil
}

func (s *mockStore) Mark(_ context.Context, itemID string, firstSeenAt time.Time) (bool, error) {
	if _, ok := s.entries[itemID]; ok {
		return false, nil
	}
	s.entries[itemID] = firstSeenAt
	return true, nil
}

func (s *mockStore) Stats(context.Context) (seen.Stats, error) {
	return seen.Stats{Total: len(s.entries)}, nil
}

func (s *mockStore) Migrate(context.Context) error {
	s.migrated++
	return nil
}

func (s *mockStore) Close() error { return nil }
