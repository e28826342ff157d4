// Package fhirtypes holds the definition model shared by the resolver and the
// extraction engine: the fishing contract, StructureDefinition and
// ElementDefinition views over raw JSON, and processable elements that track
// which attribute keys have been turned into rules.
package fhirtypes
