// Package gofsh converts FHIR conformance resources into FHIR Shorthand (FSH).
//
// A run is split into three stages that share one mutable package of
// exportable entities:
//
//   - Resolution: a local definition store (the lake) and the definitions of
//     dependency packages are combined behind a single fishing contract that
//     answers "what is this name, id or url?".
//   - Extraction: every StructureDefinition, ValueSet, CodeSystem and example
//     instance is turned into FSH rules. Element rules are diffed against the
//     nearest ancestor so only new or changed constraints are emitted, and any
//     attribute not modelled by a specific rule is captured by a caret rule so
//     nothing is lost.
//   - Optimization: a set of independent rewrite passes, ordered by declared
//     runBefore/runAfter edges, merges, prunes and canonicalizes the rules.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/gofsh"
//	    "github.com/gofhir/gofsh/engine"
//	)
//
//	e := engine.New(gofsh.WithDependencies("hl7.fhir.us.core#6.1.0"))
//	out, err := e.Run(ctx, "./input")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range out.Package.Profiles {
//	    fmt.Println(p.FSH())
//	}
//
// # Functional Options
//
//	e := engine.New(
//	    gofsh.WithAliasGeneration(false),
//	    gofsh.WithFHIRVersion(gofsh.R4),
//	    gofsh.WithKeepGeneratedDates(true),
//	)
package gofsh
