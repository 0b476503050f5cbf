package sdc4

// Namespace is the base IRI for all SDC4 ontology terms.
const Namespace = "https://semanticdatacharter.com/ns/sdc4/"

// DMNamespace is the base IRI for data-model instance terms.
const DMNamespace = "https://semanticdatacharter.com/ns/dm/"

// SchemaLocationBase is the base URL schema files are published under.
// A data model's XSD lives at {SchemaLocationBase}dm-{ct_id}.xsd.
const SchemaLocationBase = "https://semanticdatacharter.com/dmlib/"

// XSINamespace is the XML Schema instance namespace.
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// TurtlePrefixes is the prefix block emitted at the top of every
// RDF export. The empty prefix maps to the data-model namespace so
// reifier nodes stay short.
const TurtlePrefixes = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix dc: <http://purl.org/dc/elements/1.1/> .
@prefix sdc4: <https://semanticdatacharter.com/ns/sdc4/> .
@prefix dm: <https://semanticdatacharter.com/ns/dm/> .
@prefix : <https://semanticdatacharter.com/ns/dm/> .

`
