// Package template manages the per-model instance skeletons: loading
// them from a template directory, verifying placeholder coverage
// against the field metadata table, and rendering the human-editable
// templates handed out for bulk import.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

var (
	// ErrSkeletonNotFound indicates no skeleton.xml exists for the
	// requested data model.
	ErrSkeletonNotFound = errors.New("skeleton not found")

	// ErrModelNotFound indicates no model.json exists for the
	// requested data model.
	ErrModelNotFound = errors.New("model description not found")
)

// Template pairs a loaded data model with its instance skeleton.
type Template struct {
	Model    *datamodel.DataModel
	Skeleton string
}

// Store loads templates from a filesystem laid out as one directory
// per data model ct_id, each holding model.json and skeleton.xml.
type Store struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewStore creates a template store over fsys.
func NewStore(fsys fs.FS, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fsys: fsys, logger: logger}
}

// Load reads and verifies the template for one data model.
func (s *Store) Load(dmCTID string) (*Template, error) {
	modelPath := path.Join(dmCTID, "model.json")
	model, err := datamodel.LoadModel(s.fsys, modelPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("data model %s: %w", dmCTID, ErrModelNotFound)
		}
		return nil, err
	}
	if model.CTID != dmCTID {
		return nil, fmt.Errorf("data model %s: model.json declares ct_id %s", dmCTID, model.CTID)
	}

	raw, err := fs.ReadFile(s.fsys, path.Join(dmCTID, "skeleton.xml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("data model %s: %w", dmCTID, ErrSkeletonNotFound)
		}
		return nil, fmt.Errorf("read skeleton for %s: %w", dmCTID, err)
	}

	skeleton := string(raw)
	if err := VerifyCoverage(model, skeleton); err != nil {
		return nil, fmt.Errorf("data model %s: %w", dmCTID, err)
	}

	s.logger.Debug("loaded template",
		"dm_ct_id", dmCTID,
		"fields", len(model.Fields))

	return &Template{Model: model, Skeleton: skeleton}, nil
}

// List returns the ct_ids of every data model present in the store,
// sorted. A directory counts when it holds a model.json.
func (s *Store) List() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read template directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := fs.Stat(s.fsys, path.Join(entry.Name(), "model.json")); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadAll loads every template in the store and registers its model.
// It returns the loaded templates keyed by data model ct_id.
func (s *Store) LoadAll(reg *datamodel.Registry) (map[string]*Template, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Template, len(ids))
	for _, id := range ids {
		tmpl, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		if reg != nil {
			if err := reg.Register(tmpl.Model); err != nil {
				return nil, err
			}
		}
		out[id] = tmpl
	}
	return out, nil
}

// VerifyCoverage checks that the skeleton carries exactly one value
// placeholder and exactly one ev-placeholder for every field in the
// model. A mismatch means skeleton and model description drifted apart
// and instances built from the pair would silently drop data.
func VerifyCoverage(model *datamodel.DataModel, skeleton string) error {
	for ctID, meta := range model.Fields {
		token := fmt.Sprintf("%s%s_%s<", sdc4.PlaceholderPrefix, meta.ValueElement(), ctID)
		if n := strings.Count(skeleton, token); n != 1 {
			return fmt.Errorf("field %s: skeleton has %d value placeholders, want 1", ctID, n)
		}

		marker := fmt.Sprintf("<%s %s=%q", sdc4.EVPlaceholderElement, sdc4.EVPlaceholderAttr, ctID)
		if n := strings.Count(skeleton, marker); n != 1 {
			return fmt.Errorf("field %s: skeleton has %d ev-placeholders, want 1", ctID, n)
		}
	}
	return nil
}
