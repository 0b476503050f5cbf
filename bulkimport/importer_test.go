package bulkimport

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/sdcpipeline/builder"
	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/pipeline"
	"github.com/c360studio/sdcpipeline/storage"
	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/validator"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

func testModel(t *testing.T) *datamodel.DataModel {
	t.Helper()
	model := &datamodel.DataModel{
		CTID:        "dm01aaa",
		Label:       "State Population",
		ClusterCTID: "cl01aaa",
		Fields: map[string]datamodel.FieldMeta{
			"abc123": {
				Label: "Population Count",
				Kind:  sdc4.KindCount,
			},
			"def456": {
				Label: "State Name",
				Kind:  sdc4.KindString,
			},
		},
		FieldOrder: []string{"abc123", "def456"},
	}
	require.NoError(t, model.Validate())
	return model
}

func testStore(t *testing.T, model *datamodel.DataModel) *template.Store {
	t.Helper()
	raw, err := json.Marshal(model)
	require.NoError(t, err)
	fsys := fstest.MapFS{
		model.CTID + "/model.json":   {Data: raw},
		model.CTID + "/skeleton.xml": {Data: []byte(template.WriteSkeleton(model))},
	}
	return template.NewStore(fsys, nil)
}

// contentOracle flags any document still carrying a non-numeric count
// value. Corrected documents pass because the corrector removes the
// offending value.
type contentOracle struct{}

func (contentOracle) Validate(xmlContent string) (validator.Result, error) {
	if strings.Contains(xmlContent, "notanumber") {
		return validator.Result{
			IsValid:           false,
			Errors:            map[string]string{"abc123": "value is not of integer type"},
			InvalidComponents: []string{"abc123"},
		}, nil
	}
	return validator.Result{IsValid: true}, nil
}

// rejectAllOracle never accepts a document, corrected or not.
type rejectAllOracle struct{}

func (rejectAllOracle) Validate(string) (validator.Result, error) {
	return validator.Result{
		IsValid:           false,
		Errors:            map[string]string{"abc123": "value is not of integer type"},
		InvalidComponents: []string{"abc123"},
	}, nil
}

func buildInstance(t *testing.T, store *template.Store, count any) string {
	t.Helper()
	tmpl, err := store.Load("dm01aaa")
	require.NoError(t, err)
	xmlContent, err := builder.New(tmpl, nil).Build(builder.Request{
		InstanceID: builder.NewInstanceID(),
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: count},
			"def456": {Value: "Minnesota"},
		},
	})
	require.NoError(t, err)
	return xmlContent
}

func testImporter(t *testing.T, oracle validator.Oracle) (*Importer, *storage.MemoryStore, *template.Store) {
	t.Helper()
	store := testStore(t, testModel(t))
	records := storage.NewMemoryStore()
	proc := pipeline.NewProcessor(store, oracle, records, nil)
	return NewImporter(proc, nil), records, store
}

func TestImportDirectory(t *testing.T) {
	imp, records, store := testImporter(t, contentOracle{})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.xml"), []byte(buildInstance(t, store, 42)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.xml"), []byte(buildInstance(t, store, 7)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte(buildInstance(t, store, "notanumber")), 0o644))

	result := imp.ImportDirectory(context.Background(), "dm01aaa", dir)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.InDelta(t, 100.0, result.SuccessRate(), 0.01)
	assert.Empty(t, result.Failures())

	seen := map[string]bool{}
	for _, res := range result.Results {
		assert.True(t, res.Success, res.Filename)
		assert.True(t, strings.HasPrefix(res.InstanceID, "i-"))
		assert.False(t, seen[res.InstanceID], "duplicate instance id")
		seen[res.InstanceID] = true

		record, err := records.Get(context.Background(), res.InstanceID)
		require.NoError(t, err)
		assert.Equal(t, res.ValidationStatus, record.ValidationStatus)

		if res.Filename == "broken.xml" {
			assert.Equal(t, storage.StatusValidWithEV, res.ValidationStatus)
			assert.Equal(t, []string{"Population Count"}, res.AutoCorrectedFields)
			assert.True(t, strings.HasPrefix(res.InstanceID, "i-ev-"))
		} else {
			assert.Equal(t, storage.StatusValid, res.ValidationStatus)
			assert.Empty(t, res.AutoCorrectedFields)
		}
	}
}

func TestImportDirectoryAssignsFreshIdentity(t *testing.T) {
	imp, records, store := testImporter(t, contentOracle{})

	original := buildInstance(t, store, 42)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copy.xml"), []byte(original), 0o644))

	result := imp.ImportDirectory(context.Background(), "dm01aaa", dir)
	require.Equal(t, 1, result.Successful)

	imported := result.Results[0]
	assert.NotContains(t, original, imported.InstanceID)

	record, err := records.Get(context.Background(), imported.InstanceID)
	require.NoError(t, err)
	assert.Contains(t, record.XMLContent, "<instance_id>"+imported.InstanceID+"</instance_id>")
}

func TestImportDirectoryMissing(t *testing.T) {
	imp, _, _ := testImporter(t, contentOracle{})

	result := imp.ImportDirectory(context.Background(), "dm01aaa", "/no/such/dir")

	assert.Equal(t, 0, result.TotalFiles)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.SuccessRate())

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].ErrorMessage, "/no/such/dir")
}

func TestImportDirectoryContinuesAfterFailure(t *testing.T) {
	imp, records, store := testImporter(t, rejectAllOracle{})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xml"), []byte(buildInstance(t, store, 1)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xml"), []byte(buildInstance(t, store, 2)), 0o644))

	result := imp.ImportDirectory(context.Background(), "dm01aaa", dir)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 2, result.Failed)
	for _, res := range result.Results {
		assert.False(t, res.Success)
		assert.Contains(t, res.ErrorMessage, "invalid after auto-correction")
	}

	all, err := records.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range members {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestImportZip(t *testing.T) {
	imp, _, store := testImporter(t, contentOracle{})

	zipPath := filepath.Join(t.TempDir(), "batch.zip")
	writeZip(t, zipPath, map[string]string{
		"one.xml":        buildInstance(t, store, 42),
		"nested/two.xml": buildInstance(t, store, 7),
		"notes.txt":      "ignore me",
	})

	result := imp.ImportZip(context.Background(), "dm01aaa", zipPath)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)

	names := map[string]bool{}
	for _, res := range result.Results {
		names[res.Filename] = true
	}
	assert.True(t, names["one.xml"])
	assert.True(t, names["nested/two.xml"])
}

func TestImportZipMissing(t *testing.T) {
	imp, _, _ := testImporter(t, contentOracle{})

	result := imp.ImportZip(context.Background(), "dm01aaa", "/no/such/batch.zip")

	assert.Equal(t, 0, result.TotalFiles)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures(), 1)
	assert.Contains(t, result.Failures()[0].ErrorMessage, "open archive")
}

func TestImportZipMalformed(t *testing.T) {
	imp, _, _ := testImporter(t, contentOracle{})

	zipPath := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("this is not a zip"), 0o644))

	result := imp.ImportZip(context.Background(), "dm01aaa", zipPath)

	assert.Equal(t, 0, result.TotalFiles)
	assert.Equal(t, 1, result.Failed)
}

func TestBulkResultDuration(t *testing.T) {
	result := &BulkResult{}
	assert.Zero(t, result.SuccessRate())
	assert.Zero(t, result.Duration())
}
