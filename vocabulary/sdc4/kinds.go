package sdc4

// Kind identifies the SDC4 component type of a data field. The kind
// drives value-element naming, formatting, decoding, and the RDF
// literal policy through the dispatch tables below instead of string
// comparisons scattered across the pipeline.
type Kind string

const (
	KindString   Kind = "XdString"
	KindBoolean  Kind = "XdBoolean"
	KindCount    Kind = "XdCount"
	KindQuantity Kind = "XdQuantity"
	KindFloat    Kind = "XdFloat"
	KindDouble   Kind = "XdDouble"
	KindLink     Kind = "XdLink"
	KindFile     Kind = "XdFile"
	KindOrdinal  Kind = "XdOrdinal"
	KindTemporal Kind = "XdTemporal"
)

// TemporalSubtype narrows a temporal field to one XML Schema shape.
// A field carries exactly one subtype, fixed at schema generation.
type TemporalSubtype string

const (
	TemporalDate      TemporalSubtype = "date"
	TemporalTime      TemporalSubtype = "time"
	TemporalDateTime  TemporalSubtype = "datetime"
	TemporalDuration  TemporalSubtype = "duration"
	TemporalDay       TemporalSubtype = "day"
	TemporalMonth     TemporalSubtype = "month"
	TemporalYear      TemporalSubtype = "year"
	TemporalYearMonth TemporalSubtype = "year_month"
	TemporalMonthDay  TemporalSubtype = "month_day"
)

// valueElements maps each non-temporal kind to its value element name.
var valueElements = map[Kind]string{
	KindString:   "xdstring-value",
	KindBoolean:  "xdboolean-value",
	KindCount:    "xdcount-value",
	KindQuantity: "xdquantity-value",
	KindFloat:    "xdfloat-value",
	KindDouble:   "xddouble-value",
	KindLink:     "xdlink-value",
	KindFile:     "xdfile-value",
	KindOrdinal:  "xdordinal-value",
}

// temporalElements maps each temporal subtype to its value element name.
var temporalElements = map[TemporalSubtype]string{
	TemporalDate:      "xdtemporal-date",
	TemporalTime:      "xdtemporal-time",
	TemporalDateTime:  "xdtemporal-datetime",
	TemporalDuration:  "xdtemporal-duration",
	TemporalDay:       "xdtemporal-day",
	TemporalMonth:     "xdtemporal-month",
	TemporalYear:      "xdtemporal-year",
	TemporalYearMonth: "xdtemporal-year-month",
	TemporalMonthDay:  "xdtemporal-month-day",
}

// xsdDatatypes maps each kind to its XSD datatype IRI (prefixed form).
var xsdDatatypes = map[Kind]string{
	KindString:   "xsd:string",
	KindBoolean:  "xsd:boolean",
	KindCount:    "xsd:integer",
	KindOrdinal:  "xsd:integer",
	KindQuantity: "xsd:decimal",
	KindFloat:    "xsd:float",
	KindDouble:   "xsd:double",
	KindTemporal: "xsd:dateTime",
	KindLink:     "xsd:anyURI",
	KindFile:     "xsd:base64Binary",
}

// unitsElements maps each quantified kind to its units wrapper element.
var unitsElements = map[Kind]string{
	KindCount:    "xdcount-units",
	KindQuantity: "xdquantity-units",
	KindFloat:    "xdfloat-units",
	KindDouble:   "xddouble-units",
	KindOrdinal:  "xdordinal-units",
}

// ValueElement returns the value element name for a kind. Temporal
// kinds resolve through the subtype; an empty subtype defaults to date,
// matching the skeleton generator's fallback.
func ValueElement(kind Kind, subtype TemporalSubtype) string {
	if kind == KindTemporal {
		if name, ok := temporalElements[subtype]; ok {
			return name
		}
		return temporalElements[TemporalDate]
	}
	if name, ok := valueElements[kind]; ok {
		return name
	}
	return "value"
}

// TemporalValueElements returns every temporal value element name, in
// subtype declaration order. Extractors probe these when the concrete
// subtype is unknown.
func TemporalValueElements() []string {
	return []string{
		"xdtemporal-date",
		"xdtemporal-time",
		"xdtemporal-datetime",
		"xdtemporal-duration",
		"xdtemporal-day",
		"xdtemporal-month",
		"xdtemporal-year",
		"xdtemporal-year-month",
		"xdtemporal-month-day",
	}
}

// AllValueElements returns every value element name an instance can
// carry, scalar kinds first then the temporal variants.
func AllValueElements() []string {
	out := []string{
		"xdstring-value",
		"xdboolean-value",
		"xdcount-value",
		"xdquantity-value",
		"xdfloat-value",
		"xddouble-value",
		"xdlink-value",
		"xdfile-value",
		"xdordinal-value",
	}
	return append(out, TemporalValueElements()...)
}

// XSDDatatype returns the prefixed XSD datatype for a kind, defaulting
// to xsd:string for unknown kinds.
func XSDDatatype(kind Kind) string {
	if dt, ok := xsdDatatypes[kind]; ok {
		return dt
	}
	return "xsd:string"
}

// UnitsElement returns the units wrapper element name for a quantified
// kind, or "" when the kind carries no units.
func UnitsElement(kind Kind) string {
	return unitsElements[kind]
}

// AllUnitsElements returns every units wrapper element name.
func AllUnitsElements() []string {
	return []string{
		"xdcount-units",
		"xdquantity-units",
		"xdfloat-units",
		"xddouble-units",
		"xdordinal-units",
	}
}

// Quantified reports whether the kind carries a units wrapper.
func (k Kind) Quantified() bool {
	_, ok := unitsElements[k]
	return ok
}

// PlainLiteral reports whether values of this kind are emitted as bare
// Turtle literals (no surrounding quotes). Everything else is quoted
// and escape-safe.
func (k Kind) PlainLiteral() bool {
	switch k {
	case KindBoolean, KindCount, KindOrdinal, KindQuantity, KindFloat, KindDouble:
		return true
	}
	return false
}
