// Package pipeline orchestrates the full instance lifecycle: build,
// validate, auto-correct, extract JSON and RDF, persist, and sync to
// the triplestore.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/sdcpipeline/builder"
	"github.com/c360studio/sdcpipeline/export"
	"github.com/c360studio/sdcpipeline/extract"
	"github.com/c360studio/sdcpipeline/graph"
	"github.com/c360studio/sdcpipeline/storage"
	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/validator"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// GraphUploader is the triplestore surface the pipeline needs. A nil
// uploader disables RDF sync.
type GraphUploader interface {
	UploadGraph(ctx context.Context, rdfContent, graphURI string) error
}

// Processor runs the build pipeline for one or more data models.
type Processor struct {
	templates *template.Store
	oracle    validator.Oracle
	corrector *validator.Corrector
	records   storage.RecordStore
	uploader  GraphUploader
	logger    *slog.Logger
	metrics   *processorMetrics
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithGraphUploader enables triplestore sync.
func WithGraphUploader(uploader GraphUploader) ProcessorOption {
	return func(p *Processor) { p.uploader = uploader }
}

// WithMetrics registers pipeline metrics with the given registerer.
func WithMetrics(registerer prometheus.Registerer) ProcessorOption {
	return func(p *Processor) {
		m, err := newProcessorMetrics(registerer)
		if err != nil {
			p.logger.Warn("metrics registration failed", "error", err)
			return
		}
		p.metrics = m
	}
}

// NewProcessor creates a pipeline processor.
func NewProcessor(templates *template.Store, oracle validator.Oracle, records storage.RecordStore, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		templates: templates,
		oracle:    oracle,
		corrector: validator.NewCorrector(logger),
		records:   records,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process builds, validates, and persists one instance of a data model.
// Validation failure is not an error: the corrector turns invalid
// components into exceptional values and the record is persisted as
// valid_with_ev. An error means no record was persisted.
func (p *Processor) Process(ctx context.Context, dmCTID string, req builder.Request) (*storage.Record, error) {
	start := time.Now()

	record, err := p.process(ctx, dmCTID, req)
	if err != nil {
		p.metrics.recordBuild(dmCTID, "failed", time.Since(start))
		return nil, err
	}
	p.metrics.recordBuild(dmCTID, string(record.ValidationStatus), time.Since(start))
	return record, nil
}

// ProcessXML runs the validation pipeline over an existing instance
// document, assigning it a fresh identity and creation time. This is
// the import path: the document was built elsewhere and only needs
// validation, extraction, and persistence.
func (p *Processor) ProcessXML(ctx context.Context, dmCTID, xmlContent string) (*storage.Record, error) {
	start := time.Now()

	tmpl, err := p.templates.Load(dmCTID)
	if err != nil {
		p.metrics.recordBuild(dmCTID, "failed", time.Since(start))
		return nil, fmt.Errorf("load template: %w", err)
	}

	instanceID := builder.NewInstanceID()
	xmlContent = rewriteInstanceID(xmlContent, instanceID)
	xmlContent = refreshCreationTimestamp(xmlContent, time.Now().UTC())

	record, err := p.finalize(ctx, tmpl, dmCTID, instanceID, xmlContent)
	if err != nil {
		p.metrics.recordBuild(dmCTID, "failed", time.Since(start))
		return nil, err
	}
	p.metrics.recordBuild(dmCTID, string(record.ValidationStatus), time.Since(start))
	return record, nil
}

func (p *Processor) process(ctx context.Context, dmCTID string, req builder.Request) (*storage.Record, error) {
	tmpl, err := p.templates.Load(dmCTID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	if req.InstanceID == "" {
		req.InstanceID = builder.NewInstanceID()
	}

	xmlContent, err := builder.New(tmpl, p.logger).Build(req)
	if err != nil {
		return nil, fmt.Errorf("build instance: %w", err)
	}

	return p.finalize(ctx, tmpl, dmCTID, req.InstanceID, xmlContent)
}

// finalize validates, corrects, extracts, persists, and syncs one
// built document.
func (p *Processor) finalize(ctx context.Context, tmpl *template.Template, dmCTID, instanceID, xmlContent string) (*storage.Record, error) {
	result, err := p.oracle.Validate(xmlContent)
	if err != nil {
		return nil, fmt.Errorf("validate instance: %w", err)
	}

	record := &storage.Record{
		InstanceID:       instanceID,
		DMCTID:           dmCTID,
		ValidationStatus: storage.StatusValid,
		RDFSyncStatus:    storage.SyncDisabled,
	}

	if !result.IsValid {
		corrected, correctedFields := p.corrector.Apply(xmlContent, result.Errors)
		p.metrics.recordCorrection(dmCTID, len(correctedFields))

		// Corrected instances get a fresh identity so the original id
		// never refers to content that changed after the fact.
		instanceID = "i-ev-" + strings.TrimPrefix(instanceID, "i-")
		corrected = rewriteInstanceID(corrected, instanceID)

		recheck, err := p.oracle.Validate(corrected)
		if err != nil {
			return nil, fmt.Errorf("revalidate corrected instance: %w", err)
		}
		if !recheck.IsValid {
			return nil, fmt.Errorf("instance %s invalid after auto-correction: %v", instanceID, recheck.Errors)
		}

		xmlContent = corrected
		record.InstanceID = instanceID
		record.ValidationStatus = storage.StatusValidWithEV
		record.ValidationErrors = result.Errors
		record.AutoCorrectedFields = correctedFields

		p.logger.Warn("instance auto-corrected",
			"instance_id", instanceID,
			"dm_ct_id", dmCTID,
			"corrected_fields", correctedFields)
	}

	record.XMLContent = xmlContent

	queryDoc := extract.NewQueryExtractor(p.logger).Extract(xmlContent)
	record.SearchText = queryDoc.SearchText

	jsonInstance, err := extract.NewInstanceGenerator(tmpl.Model, p.logger).GenerateJSON(xmlContent)
	if err != nil {
		p.logger.Warn("json instance generation failed", "instance_id", instanceID, "error", err)
	} else {
		record.JSONInstance = jsonInstance
	}

	if p.uploader != nil {
		record.RDFSyncStatus = storage.SyncPending
		record.GraphURI = graph.GraphURI(instanceID, dmCTID)
	}

	if err := p.records.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	// Triplestore sync is advisory: failures are recorded on the
	// already-persisted record, never returned.
	if p.uploader != nil {
		p.syncGraph(ctx, tmpl, record)
	} else {
		p.metrics.recordUpload(string(storage.SyncDisabled))
	}

	return record, nil
}

func (p *Processor) syncGraph(ctx context.Context, tmpl *template.Template, record *storage.Record) {
	turtle := export.NewRDFExtractor(tmpl.Model, p.logger).Extract(
		record.XMLContent,
		record.InstanceID,
		string(record.ValidationStatus),
		record.AutoCorrectedFields,
	)

	status := storage.SyncSynced
	if turtle == "" {
		status = storage.SyncFailed
	} else if err := p.uploader.UploadGraph(ctx, turtle, record.GraphURI); err != nil {
		p.logger.Warn("triplestore upload failed",
			"instance_id", record.InstanceID,
			"graph_uri", record.GraphURI,
			"error", err)
		status = storage.SyncFailed
	}

	record.RDFSyncStatus = status
	p.metrics.recordUpload(string(status))
	if err := p.records.UpdateSyncStatus(ctx, record.InstanceID, status); err != nil {
		p.logger.Warn("sync status update failed", "instance_id", record.InstanceID, "error", err)
	}
}

var (
	instanceIDPattern        = regexp.MustCompile(`<instance_id>[^<]*</instance_id>`)
	creationTimestampPattern = regexp.MustCompile(`<creation_timestamp>[^<]*</creation_timestamp>`)
)

// rewriteInstanceID replaces the instance_id element text, falling
// back to a plain string rewrite when the document will not parse.
func rewriteInstanceID(xmlContent, instanceID string) string {
	return rewriteLeaf(xmlContent, sdc4.ElemInstanceID, instanceIDPattern, instanceID)
}

// refreshCreationTimestamp stamps the document with the given time,
// so imported copies of an instance do not claim the original's
// creation date.
func refreshCreationTimestamp(xmlContent string, now time.Time) string {
	return rewriteLeaf(xmlContent, sdc4.ElemCreationTimestamp, creationTimestampPattern, now.Format("2006-01-02T15:04:05"))
}

func rewriteLeaf(xmlContent, tag string, pattern *regexp.Regexp, value string) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlContent); err != nil {
		return pattern.ReplaceAllString(xmlContent, "<"+tag+">"+value+"</"+tag+">")
	}
	elem := doc.FindElement("//" + tag)
	if elem == nil {
		return xmlContent
	}
	elem.SetText(value)
	out, err := doc.WriteToString()
	if err != nil {
		return xmlContent
	}
	return out
}
