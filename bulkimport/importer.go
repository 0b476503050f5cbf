// Package bulkimport ingests batches of pre-built instance documents
// from directories or zip archives and runs each one through the
// validation pipeline.
package bulkimport

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/sdcpipeline/pipeline"
	"github.com/c360studio/sdcpipeline/storage"
)

// ImportResult records the outcome for a single file.
type ImportResult struct {
	Filename            string                   `json:"filename"`
	Success             bool                     `json:"success"`
	InstanceID          string                   `json:"instance_id,omitempty"`
	ErrorMessage        string                   `json:"error_message,omitempty"`
	ValidationStatus    storage.ValidationStatus `json:"validation_status,omitempty"`
	AutoCorrectedFields []string                 `json:"auto_corrected_fields,omitempty"`
	RDFSyncStatus       storage.RDFSyncStatus    `json:"rdf_sync_status,omitempty"`
}

// BulkResult summarizes one import run.
type BulkResult struct {
	TotalFiles  int            `json:"total_files"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	Results     []ImportResult `json:"results"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Duration is the wall time of the run.
func (r *BulkResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// SuccessRate is the percentage of files that imported, 0 when the
// run saw no files.
func (r *BulkResult) SuccessRate() float64 {
	if r.TotalFiles == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.TotalFiles) * 100
}

// Failures returns only the failed results.
func (r *BulkResult) Failures() []ImportResult {
	var failed []ImportResult
	for _, res := range r.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}

// Importer feeds instance documents into a pipeline processor. One
// file failing never stops the run.
type Importer struct {
	processor *pipeline.Processor
	logger    *slog.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

// NewImporter creates an importer over the given processor.
func NewImporter(processor *pipeline.Processor, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		processor: processor,
		logger:    logger,
		Now:       time.Now,
	}
}

// ImportDirectory imports every .xml file directly under dir. A
// missing or unreadable directory is reported as a single failed
// result rather than an error, so batch callers always get a summary.
func (imp *Importer) ImportDirectory(ctx context.Context, dmCTID, dir string) *BulkResult {
	result := imp.newRun()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return imp.finish(result, ImportResult{
			Filename:     dir,
			ErrorMessage: fmt.Sprintf("directory not found: %s", dir),
		})
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return imp.finish(result, ImportResult{
			Filename:     dir,
			ErrorMessage: fmt.Sprintf("list directory: %v", err),
		})
	}

	imp.logger.Info("bulk import started", "dm_ct_id", dmCTID, "dir", dir, "files", len(paths))

	result.TotalFiles = len(paths)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			result.Results = append(result.Results, ImportResult{
				Filename:     filepath.Base(path),
				ErrorMessage: fmt.Sprintf("read file: %v", err),
			})
			continue
		}
		result.Results = append(result.Results, imp.importOne(ctx, dmCTID, filepath.Base(path), string(content)))
	}

	return imp.finish(result)
}

// ImportZip imports every .xml member of a zip archive. Nested
// directories inside the archive are walked; non-XML members are
// ignored. A missing or malformed archive is reported as a single
// failed result.
func (imp *Importer) ImportZip(ctx context.Context, dmCTID, zipPath string) *BulkResult {
	result := imp.newRun()

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return imp.finish(result, ImportResult{
			Filename:     zipPath,
			ErrorMessage: fmt.Sprintf("open archive: %v", err),
		})
	}
	defer reader.Close()

	imp.logger.Info("bulk import started", "dm_ct_id", dmCTID, "archive", zipPath)

	for _, member := range reader.File {
		if member.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(member.Name), ".xml") {
			continue
		}
		result.TotalFiles++
		content, err := readZipMember(member)
		if err != nil {
			result.Results = append(result.Results, ImportResult{
				Filename:     member.Name,
				ErrorMessage: fmt.Sprintf("read archive member: %v", err),
			})
			continue
		}
		result.Results = append(result.Results, imp.importOne(ctx, dmCTID, member.Name, content))
	}

	return imp.finish(result)
}

func (imp *Importer) importOne(ctx context.Context, dmCTID, filename, xmlContent string) ImportResult {
	record, err := imp.processor.ProcessXML(ctx, dmCTID, xmlContent)
	if err != nil {
		imp.logger.Warn("import failed", "file", filename, "error", err)
		return ImportResult{
			Filename:     filename,
			ErrorMessage: err.Error(),
		}
	}

	return ImportResult{
		Filename:            filename,
		Success:             true,
		InstanceID:          record.InstanceID,
		ValidationStatus:    record.ValidationStatus,
		AutoCorrectedFields: record.AutoCorrectedFields,
		RDFSyncStatus:       record.RDFSyncStatus,
	}
}

func (imp *Importer) newRun() *BulkResult {
	return &BulkResult{StartedAt: imp.Now()}
}

// finish tallies the run. TotalFiles counts candidate files only, so
// a missing source shows up as a failure against zero files.
func (imp *Importer) finish(result *BulkResult, extra ...ImportResult) *BulkResult {
	result.Results = append(result.Results, extra...)
	for _, res := range result.Results {
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}
	result.CompletedAt = imp.Now()

	imp.logger.Info("bulk import finished",
		"total", result.TotalFiles,
		"successful", result.Successful,
		"failed", result.Failed)

	return result
}

func readZipMember(member *zip.File) (string, error) {
	rc, err := member.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
