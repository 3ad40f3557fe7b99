// Package stencil is the root of the stencil code generator: a model-driven
// source generator that consumes an abstract service model (shapes, traits,
// protocols) and produces Go client/server code.
//
// This repository holds the analysis and test-support core:
//
//   - model:            the shape graph (shapes, traits, identities)
//   - model/transform:  model-to-model rewrite passes
//   - compiler/load:    the textual model loader
//   - compiler/gen:     constraint classification, reachability analysis,
//     and the pluggable codegen backend contracts
//   - wire:             the event-stream frame runtime shared with
//     generated code
//   - fixture:          self-contained test models
//   - harness:          the event-stream test-harness orchestrator and
//     codegen integration driver
//
// The root package carries the shared error taxonomy and the Settings
// document passed to plugin invocations.
package stencil

// Version is the stencil module version stamped into generated projects.
const Version = "0.4.0"
