package sdc4

// EVCode is one of the sixteen Exceptional Value codes from the SDC4
// substitution group. An EV records why a value is absent, masked, or
// otherwise not a plain datum.
type EVCode string

const (
	EVNoInformation    EVCode = "NI"
	EVMasked           EVCode = "MSK"
	EVInvalid          EVCode = "INV"
	EVDerived          EVCode = "DER"
	EVUnencoded        EVCode = "UNC"
	EVOther            EVCode = "OTH"
	EVNegativeInfinity EVCode = "NINF"
	EVPositiveInfinity EVCode = "PINF"
	EVAskedRefused     EVCode = "ASKR"
	EVNotAsked         EVCode = "NASK"
	EVNotAvailable     EVCode = "NAV"
	EVNotApplicable    EVCode = "NA"
	EVTrace            EVCode = "TRC"
	EVAskedUnknown     EVCode = "ASKU"
	EVUnknown          EVCode = "UNK"
	EVQuantitySufficient EVCode = "QS"
)

// evNames maps each EV code to its fixed human-readable ev-name.
var evNames = map[EVCode]string{
	EVNoInformation:      "No Information",
	EVMasked:             "Masked",
	EVInvalid:            "Invalid",
	EVDerived:            "Derived",
	EVUnencoded:          "Unencoded",
	EVOther:              "Other",
	EVNegativeInfinity:   "Negative Infinity",
	EVPositiveInfinity:   "Positive Infinity",
	EVAskedRefused:       "Asked and Refused",
	EVNotAsked:           "Not Asked",
	EVNotAvailable:       "Not Available",
	EVNotApplicable:      "Not Applicable",
	EVTrace:              "Trace",
	EVAskedUnknown:       "Asked but Unknown",
	EVUnknown:            "Unknown",
	EVQuantitySufficient: "Sufficient Quantity",
}

// evCodeOrder lists the codes in their schema declaration order, used
// wherever a stable iteration order matters (template headers, docs).
var evCodeOrder = []EVCode{
	EVNoInformation, EVMasked, EVInvalid, EVDerived, EVUnencoded, EVOther,
	EVNegativeInfinity, EVPositiveInfinity, EVAskedRefused, EVNotAsked,
	EVNotAvailable, EVNotApplicable, EVTrace, EVAskedUnknown, EVUnknown,
	EVQuantitySufficient,
}

// EVCodes returns all sixteen codes in schema declaration order.
func EVCodes() []EVCode {
	out := make([]EVCode, len(evCodeOrder))
	copy(out, evCodeOrder)
	return out
}

// IsEVCode reports whether s is one of the sixteen EV codes.
func IsEVCode(s string) bool {
	_, ok := evNames[EVCode(s)]
	return ok
}

// EVName returns the fixed human-readable name for an EV code. Unknown
// codes echo back as-is so callers never emit an empty ev-name.
func EVName(code EVCode) string {
	if name, ok := evNames[code]; ok {
		return name
	}
	return string(code)
}

// EVHints maps each EV code to a short description used in generated
// bulk-import template headers.
var EVHints = map[EVCode]string{
	EVNoInformation:      "No Information - No information available",
	EVMasked:             "Masked - Value is masked for privacy",
	EVInvalid:            "Invalid - Value is invalid",
	EVDerived:            "Derived - Value was derived/calculated",
	EVUnencoded:          "Unencoded - Value could not be encoded",
	EVOther:              "Other - Other exceptional condition",
	EVNegativeInfinity:   "Negative Infinity",
	EVPositiveInfinity:   "Positive Infinity",
	EVAskedRefused:       "Asked and Refused - Subject refused to provide",
	EVNotAsked:           "Not Asked - Question was not asked",
	EVNotAvailable:       "Not Available - Value not available",
	EVNotApplicable:      "Not Applicable - Does not apply",
	EVTrace:              "Trace - Trace amount detected",
	EVAskedUnknown:       "Asked but Unknown - Asked but subject does not know",
	EVUnknown:            "Unknown - Value is unknown",
	EVQuantitySufficient: "Sufficient Quantity",
}
