package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/sdcpipeline/builder"
	"github.com/c360studio/sdcpipeline/datamodel"
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

// fakeOracle replays a scripted sequence of validation results.
type fakeOracle struct {
	results []validator.Result
	calls   int
}

func (f *fakeOracle) Validate(string) (validator.Result, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i], nil
}

func validResult() validator.Result {
	return validator.Result{IsValid: true}
}

func invalidResult() validator.Result {
	return validator.Result{
		IsValid:           false,
		Errors:            map[string]string{"abc123": "value is not of integer type"},
		InvalidComponents: []string{"abc123"},
	}
}

type fakeUploader struct {
	err      error
	turtle   string
	graphURI string
	calls    int
}

func (f *fakeUploader) UploadGraph(_ context.Context, rdfContent, graphURI string) error {
	f.calls++
	f.turtle = rdfContent
	f.graphURI = graphURI
	return f.err
}

func testRequest() builder.Request {
	return builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42},
			"def456": {Value: "Minnesota"},
		},
	}
}

func TestProcessValid(t *testing.T) {
	model := testModel(t)
	records := storage.NewMemoryStore()
	proc := NewProcessor(testStore(t, model), &fakeOracle{results: []validator.Result{validResult()}}, records, nil)

	record, err := proc.Process(context.Background(), "dm01aaa", testRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.InstanceID, "i-"))
	assert.False(t, strings.HasPrefix(record.InstanceID, "i-ev-"))
	assert.Equal(t, storage.StatusValid, record.ValidationStatus)
	assert.Equal(t, storage.SyncDisabled, record.RDFSyncStatus)
	assert.Empty(t, record.GraphURI)
	assert.Contains(t, record.XMLContent, "<xdcount-value>42</xdcount-value>")
	assert.Contains(t, record.SearchText, "Minnesota")
	assert.Contains(t, record.JSONInstance, "Population Count")

	persisted, err := records.Get(context.Background(), record.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, record.XMLContent, persisted.XMLContent)
}

func TestProcessAutoCorrect(t *testing.T) {
	model := testModel(t)
	records := storage.NewMemoryStore()
	oracle := &fakeOracle{results: []validator.Result{invalidResult(), validResult()}}
	proc := NewProcessor(testStore(t, model), oracle, records, nil)

	req := testRequest()
	req.InstanceID = "i-orig0001"

	record, err := proc.Process(context.Background(), "dm01aaa", req)
	require.NoError(t, err)

	assert.Equal(t, "i-ev-orig0001", record.InstanceID)
	assert.Equal(t, storage.StatusValidWithEV, record.ValidationStatus)
	assert.Equal(t, []string{"Population Count"}, record.AutoCorrectedFields)
	assert.Equal(t, map[string]string{"abc123": "value is not of integer type"}, record.ValidationErrors)

	// The corrected component carries an EV instead of its value, and
	// the document's identity matches the record.
	assert.Contains(t, record.XMLContent, "<exceptional-value>NoInformation</exceptional-value>")
	assert.NotContains(t, record.XMLContent, "<xdcount-value>42</xdcount-value>")
	assert.Contains(t, record.XMLContent, "<instance_id>i-ev-orig0001</instance_id>")

	_, err = records.Get(context.Background(), "i-ev-orig0001")
	assert.NoError(t, err)
}

func TestProcessStillInvalidAfterCorrection(t *testing.T) {
	model := testModel(t)
	records := storage.NewMemoryStore()
	oracle := &fakeOracle{results: []validator.Result{invalidResult(), invalidResult()}}
	proc := NewProcessor(testStore(t, model), oracle, records, nil)

	_, err := proc.Process(context.Background(), "dm01aaa", testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid after auto-correction")

	all, err := records.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProcessUploadsGraph(t *testing.T) {
	model := testModel(t)
	records := storage.NewMemoryStore()
	uploader := &fakeUploader{}
	proc := NewProcessor(testStore(t, model),
		&fakeOracle{results: []validator.Result{validResult()}},
		records, nil,
		WithGraphUploader(uploader))

	record, err := proc.Process(context.Background(), "dm01aaa", testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "urn:sdc4:dm-dm01aaa:"+record.InstanceID, uploader.graphURI)
	assert.Contains(t, uploader.turtle, "rdf:reifies << sdc4:mc-abc123 sdc4:xdcount-value 42 >>")
	assert.Equal(t, storage.SyncSynced, record.RDFSyncStatus)

	persisted, err := records.Get(context.Background(), record.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncSynced, persisted.RDFSyncStatus)
}

func TestProcessUploadFailureDoesNotBlockPersistence(t *testing.T) {
	model := testModel(t)
	records := storage.NewMemoryStore()
	uploader := &fakeUploader{err: errors.New("connection refused")}
	proc := NewProcessor(testStore(t, model),
		&fakeOracle{results: []validator.Result{validResult()}},
		records, nil,
		WithGraphUploader(uploader))

	record, err := proc.Process(context.Background(), "dm01aaa", testRequest())
	require.NoError(t, err)
	assert.Equal(t, storage.SyncFailed, record.RDFSyncStatus)

	persisted, err := records.Get(context.Background(), record.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncFailed, persisted.RDFSyncStatus)
}

func TestProcessUnknownModel(t *testing.T) {
	model := testModel(t)
	proc := NewProcessor(testStore(t, model),
		&fakeOracle{results: []validator.Result{validResult()}},
		storage.NewMemoryStore(), nil)

	_, err := proc.Process(context.Background(), "dm99zzz", testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrModelNotFound)
}

func TestProcessMetricsRegistered(t *testing.T) {
	model := testModel(t)
	registry := prometheus.NewRegistry()
	proc := NewProcessor(testStore(t, model),
		&fakeOracle{results: []validator.Result{validResult()}},
		storage.NewMemoryStore(), nil,
		WithMetrics(registry))

	_, err := proc.Process(context.Background(), "dm01aaa", testRequest())
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sdcpipeline_processor_builds_total")
	assert.Contains(t, names, "sdcpipeline_processor_build_duration_seconds")
}

func TestProcessXMLAssignsFreshIdentity(t *testing.T) {
	model := testModel(t)
	store := testStore(t, model)
	records := storage.NewMemoryStore()
	proc := NewProcessor(store, &fakeOracle{results: []validator.Result{validResult()}}, records, nil)

	tmpl, err := store.Load("dm01aaa")
	require.NoError(t, err)
	original, err := builder.New(tmpl, nil).Build(builder.Request{
		InstanceID: "i-original0001",
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42},
			"def456": {Value: "Minnesota"},
		},
	})
	require.NoError(t, err)

	record, err := proc.ProcessXML(context.Background(), "dm01aaa", original)
	require.NoError(t, err)

	assert.NotEqual(t, "i-original0001", record.InstanceID)
	assert.True(t, strings.HasPrefix(record.InstanceID, "i-"))
	assert.NotContains(t, record.XMLContent, "i-original0001")
	assert.Contains(t, record.XMLContent, "<instance_id>"+record.InstanceID+"</instance_id>")
	assert.Equal(t, storage.StatusValid, record.ValidationStatus)
}

func TestProcessXMLRefreshesCreationTimestamp(t *testing.T) {
	model := testModel(t)
	store := testStore(t, model)
	proc := NewProcessor(store, &fakeOracle{results: []validator.Result{validResult()}}, storage.NewMemoryStore(), nil)

	tmpl, err := store.Load("dm01aaa")
	require.NoError(t, err)
	b := builder.New(tmpl, nil)
	b.Now = func() time.Time { return time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC) }
	original, err := b.Build(builder.Request{
		InstanceID: "i-original0001",
		Fields:     map[string]builder.FieldInput{"abc123": {Value: 1}},
	})
	require.NoError(t, err)
	require.Contains(t, original, "<creation_timestamp>2019-03-01T12:00:00</creation_timestamp>")

	record, err := proc.ProcessXML(context.Background(), "dm01aaa", original)
	require.NoError(t, err)

	assert.NotContains(t, record.XMLContent, "2019-03-01T12:00:00")
	assert.Contains(t, record.XMLContent, "<creation_timestamp>")
}

func TestRewriteInstanceIDUnparseableFallsBackToPattern(t *testing.T) {
	broken := "<dm-x><instance_id>i-old</instance_id><unclosed>"
	out := rewriteInstanceID(broken, "i-new")
	assert.Contains(t, out, "<instance_id>i-new</instance_id>")
	assert.NotContains(t, out, "i-old")
}
