// Package validator checks SDC4 XML instances against their XSD
// schemas and reports failures per component, so the corrector can
// apply exceptional values to exactly the components that failed.
package validator

import (
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

// Result is the outcome of validating one instance.
type Result struct {
	IsValid bool

	// Errors maps component ct_id to error message. Failures that
	// cannot be pinned to a component use synthetic error_N keys.
	Errors map[string]string

	// InvalidComponents lists the ct_ids with at least one failure,
	// in report order.
	InvalidComponents []string
}

// Oracle decides schema validity of an instance.
type Oracle interface {
	Validate(xmlContent string) (Result, error)
}

// XSDOracle validates against a compiled XSD schema.
type XSDOracle struct {
	schema *xsd.Schema
	logger *slog.Logger
}

// NewXSDOracle compiles the schema at path within fsys.
func NewXSDOracle(fsys fs.FS, path string, logger *slog.Logger) (*XSDOracle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := xsd.LoadWithOptions(fsys, path, xsd.NewLoadOptions())
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return &XSDOracle{schema: schema, logger: logger}, nil
}

// Validate runs schema validation. Validation failures come back in
// the Result; only non-validation faults (unreadable schema state,
// unparseable engine errors) return a Go error.
func (o *XSDOracle) Validate(xmlContent string) (Result, error) {
	err := o.schema.Validate(strings.NewReader(xmlContent))
	if err == nil {
		return Result{IsValid: true, Errors: map[string]string{}}, nil
	}

	validations, ok := xsderrors.AsValidations(err)
	if !ok {
		return Result{}, fmt.Errorf("validate instance: %w", err)
	}

	result := Result{Errors: make(map[string]string, len(validations))}
	seen := make(map[string]bool)
	for _, v := range validations {
		ctID := ComponentCTID(v.Path)
		if ctID == "" {
			ctID = fmt.Sprintf("error_%d", len(result.Errors))
			result.Errors[ctID] = v.Message
			continue
		}
		result.Errors[ctID] = v.Message
		if !seen[ctID] {
			seen[ctID] = true
			result.InvalidComponents = append(result.InvalidComponents, ctID)
		}
	}

	o.logger.Debug("instance failed schema validation",
		"errors", len(result.Errors),
		"components", len(result.InvalidComponents))

	return result, nil
}

// msStepRe matches ms- component steps in a validation path such as
// /{ns}dm-x/{ns}ms-cl01/{ns}ms-abc123/xdcount-value.
var msStepRe = regexp.MustCompile(`ms-([A-Za-z0-9]+)`)

// ComponentCTID returns the innermost component ct_id named in a
// validation path, or "" when the path holds no ms- step.
func ComponentCTID(path string) string {
	matches := msStepRe.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
