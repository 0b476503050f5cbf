// Package storage persists built instance records. Two implementations
// are provided: an in-memory store for tests and single-process use,
// and a NATS JetStream KV store for durable deployments.
package storage

import (
	"context"
	"errors"
	"time"
)

// ValidationStatus is the outcome of schema validation for a record.
type ValidationStatus string

const (
	// StatusValid means the instance passed schema validation unchanged.
	StatusValid ValidationStatus = "valid"

	// StatusValidWithEV means the instance passed after exceptional
	// value auto-correction.
	StatusValidWithEV ValidationStatus = "valid_with_ev"
)

// RDFSyncStatus tracks whether a record's Turtle made it to the
// triplestore. Sync failure never blocks persistence.
type RDFSyncStatus string

const (
	SyncPending  RDFSyncStatus = "pending"
	SyncSynced   RDFSyncStatus = "synced"
	SyncFailed   RDFSyncStatus = "failed"
	SyncDisabled RDFSyncStatus = "disabled"
)

// Record is the persisted shape of one built instance.
type Record struct {
	InstanceID          string            `json:"instance_id"`
	DMCTID              string            `json:"dm_ct_id"`
	XMLContent          string            `json:"xml_content"`
	JSONInstance        string            `json:"json_instance,omitempty"`
	SearchText          string            `json:"search_text,omitempty"`
	ValidationStatus    ValidationStatus  `json:"validation_status"`
	ValidationErrors    map[string]string `json:"validation_errors,omitempty"`
	AutoCorrectedFields []string          `json:"auto_corrected_fields,omitempty"`
	RDFSyncStatus       RDFSyncStatus     `json:"rdf_sync_status"`
	GraphURI            string            `json:"graph_uri,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Validate checks that a record carries the minimum fields required
// for persistence.
func (r *Record) Validate() error {
	if r.InstanceID == "" {
		return errors.New("record instance_id is required")
	}
	if r.DMCTID == "" {
		return errors.New("record dm_ct_id is required")
	}
	if r.XMLContent == "" {
		return errors.New("record xml_content is required")
	}
	switch r.ValidationStatus {
	case StatusValid, StatusValidWithEV:
	default:
		return errors.New("record validation_status must be valid or valid_with_ev")
	}
	return nil
}

// RecordStore persists and retrieves instance records keyed by
// instance id.
type RecordStore interface {
	Put(ctx context.Context, record *Record) error
	Get(ctx context.Context, instanceID string) (*Record, error)
	List(ctx context.Context, dmCTID string) ([]*Record, error)
	Delete(ctx context.Context, instanceID string) error
	UpdateSyncStatus(ctx context.Context, instanceID string, status RDFSyncStatus) error
}
