package validator

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// Corrector repairs invalid components by deleting their value
// elements and recording an exceptional value instead. The corrected
// instance validates where the original did not, at the cost of the
// offending data, which stays recoverable from the stored original.
type Corrector struct {
	logger *slog.Logger
}

// NewCorrector creates a corrector.
func NewCorrector(logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{logger: logger}
}

// Apply corrects each component named in errs. It returns the
// corrected XML and the labels of the corrected fields, in ct_id
// order. An unparseable document comes back unchanged with no
// corrections; correction must never make things worse.
func (c *Corrector) Apply(xmlContent string, errs map[string]string) (string, []string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlContent); err != nil {
		c.logger.Warn("correction skipped, document does not parse", "error", err)
		return xmlContent, nil
	}
	root := doc.Root()
	if root == nil {
		return xmlContent, nil
	}

	ctIDs := make([]string, 0, len(errs))
	for ctID := range errs {
		ctIDs = append(ctIDs, ctID)
	}
	sort.Strings(ctIDs)

	var corrected []string
	for _, ctID := range ctIDs {
		component := findComponent(root, ctID)
		if component == nil {
			continue
		}

		label := ctID
		if labelElem := component.SelectElement("label"); labelElem != nil {
			if text := strings.TrimSpace(labelElem.Text()); text != "" {
				label = text
			}
		}

		removeValueElements(component)
		component.CreateElement(sdc4.ExceptionalValueElement).
			SetText(ChooseEV(errs[ctID]))

		corrected = append(corrected, label)
		c.logger.Debug("applied exceptional value correction",
			"ct_id", ctID,
			"label", label)
	}

	if len(corrected) == 0 {
		return xmlContent, nil
	}

	out, err := doc.WriteToString()
	if err != nil {
		c.logger.Warn("serializing corrected document failed", "error", err)
		return xmlContent, nil
	}
	if !strings.HasPrefix(out, "<?xml") {
		out = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + out
	}
	return out, corrected
}

// findComponent locates a component element by its ms- tag or a ct-id
// attribute.
func findComponent(root *etree.Element, ctID string) *etree.Element {
	var found *etree.Element
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if found != nil {
			return
		}
		if el.Tag == "ms-"+ctID || el.SelectAttrValue("ct-id", "") == ctID {
			found = el
			return
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)
	return found
}

// removeValueElements deletes every value element child of a
// component, whatever its kind turned out to be.
func removeValueElements(component *etree.Element) {
	known := make(map[string]bool)
	for _, name := range sdc4.AllValueElements() {
		known[name] = true
	}

	var toRemove []*etree.Element
	for _, child := range component.ChildElements() {
		if known[child.Tag] {
			toRemove = append(toRemove, child)
		}
	}
	for _, el := range toRemove {
		component.RemoveChild(el)
	}
}

// ChooseEV picks the exceptional value name for a validation error
// message. Checks run in order; the first matching category wins.
func ChooseEV(message string) string {
	lower := strings.ToLower(message)

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("required", "missing", "mandatory"):
		return "NotPerformed"
	case contains("type", "format", "pattern"):
		return "NoInformation"
	case contains("range", "constraint", "bounds", "limit"):
		return "Unknown"
	case contains("refused", "declined"):
		return "Refused"
	case contains("not applicable", "n/a"):
		return "NotApplicable"
	default:
		return "NoInformation"
	}
}
