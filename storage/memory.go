package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process RecordStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Put stores a record, rejecting duplicate instance ids.
func (s *MemoryStore) Put(_ context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.InstanceID]; exists {
		return ErrDuplicate
	}

	now := time.Now()
	stored := *record
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[record.InstanceID] = &stored
	return nil
}

// Get returns the record for an instance id.
func (s *MemoryStore) Get(_ context.Context, instanceID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[instanceID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// List returns records, optionally filtered to one data model, sorted
// by instance id.
func (s *MemoryStore) List(_ context.Context, dmCTID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if dmCTID != "" && record.DMCTID != dmCTID {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].InstanceID < records[j].InstanceID
	})
	return records, nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[instanceID]; !ok {
		return ErrNotFound
	}
	delete(s.records, instanceID)
	return nil
}

// UpdateSyncStatus updates the triplestore sync status of a record.
func (s *MemoryStore) UpdateSyncStatus(_ context.Context, instanceID string, status RDFSyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[instanceID]
	if !ok {
		return ErrNotFound
	}
	record.RDFSyncStatus = status
	record.UpdatedAt = time.Now()
	return nil
}
