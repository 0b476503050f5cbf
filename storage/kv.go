package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// BucketInstances is the KV bucket holding instance records.
const BucketInstances = "SDC4_INSTANCES"

// KVStore is a RecordStore backed by NATS JetStream KV.
type KVStore struct {
	instances jetstream.KeyValue
}

// NewKVStore creates a KVStore, creating the bucket if it doesn't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	instances, err := getOrCreateBucket(ctx, js, BucketInstances)
	if err != nil {
		return nil, fmt.Errorf("create instances bucket: %w", err)
	}
	return &KVStore{instances: instances}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "SDC4 instance record storage",
		History:     5, // Keep last 5 revisions
	})
}

// Put stores a record, rejecting duplicate instance ids.
func (s *KVStore) Put(ctx context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	now := time.Now()
	stored := *record
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if _, err := s.instances.Create(ctx, record.InstanceID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return ErrDuplicate
		}
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

// Get retrieves a record by instance id.
func (s *KVStore) Get(ctx context.Context, instanceID string) (*Record, error) {
	entry, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &record, nil
}

// List returns records, optionally filtered to one data model, sorted
// by instance id. Entries that fail to load are skipped.
func (s *KVStore) List(ctx context.Context, dmCTID string) ([]*Record, error) {
	keys, err := s.instances.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list record keys: %w", err)
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		entry, err := s.instances.Get(ctx, key)
		if err != nil {
			continue
		}
		var record Record
		if err := json.Unmarshal(entry.Value(), &record); err != nil {
			continue
		}
		if dmCTID != "" && record.DMCTID != dmCTID {
			continue
		}
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].InstanceID < records[j].InstanceID
	})
	return records, nil
}

// Delete removes a record.
func (s *KVStore) Delete(ctx context.Context, instanceID string) error {
	if _, err := s.Get(ctx, instanceID); err != nil {
		return err
	}
	if err := s.instances.Delete(ctx, instanceID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// UpdateSyncStatus updates the triplestore sync status of a record.
func (s *KVStore) UpdateSyncStatus(ctx context.Context, instanceID string, status RDFSyncStatus) error {
	record, err := s.Get(ctx, instanceID)
	if err != nil {
		return err
	}

	record.RDFSyncStatus = status
	record.UpdatedAt = time.Now()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.instances.Put(ctx, instanceID, data); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
