package datamodel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps data-model ct_ids to loaded models. It replaces the
// process-global model cache of earlier designs: the orchestration
// layer constructs one at startup and passes it wherever lookup is
// needed. Safe for concurrent use; models are read-only once registered.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*DataModel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*DataModel)}
}

// Register adds a model to the registry. Registering the same ct_id
// twice is an error; models are immutable after registration.
func (r *Registry) Register(model *DataModel) error {
	if model == nil {
		return fmt.Errorf("nil data model")
	}
	if err := model.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[model.CTID]; exists {
		return fmt.Errorf("data model %s already registered", model.CTID)
	}
	r.models[model.CTID] = model
	return nil
}

// Get returns the model registered for a dm ct_id.
func (r *Registry) Get(dmCTID string) (*DataModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	model, ok := r.models[dmCTID]
	return model, ok
}

// List returns the registered dm ct_ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
