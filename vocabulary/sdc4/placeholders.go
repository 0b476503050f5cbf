package sdc4

// PlaceholderPrefix marks an unsubstituted value slot in a skeleton.
// Builder output never contains the prefix inside elements the caller
// populated; extractors treat any remaining prefixed text as absent.
const PlaceholderPrefix = "__PLACEHOLDER__"

// EVPlaceholderElement is the skeleton element replaced in place by an
// Exceptional Value element, or deleted when no EV was selected.
const EVPlaceholderElement = "ev-placeholder"

// EVPlaceholderAttr is the attribute on an ev-placeholder element that
// carries the owning component's ct_id.
const EVPlaceholderAttr = "ct_id"

// ExceptionalValueElement is the element appended by the corrector when
// a schema violation is rewritten to a sentinel.
const ExceptionalValueElement = "exceptional-value"
