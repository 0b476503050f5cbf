// Package sdc4 defines the vocabulary of the Semantic Data Charter
// (SDC4) data-model standard: namespace IRIs, the Exceptional Value
// substitution group, and the value-kind dispatch tables shared by the
// builder, extractors, and RDF export.
package sdc4
