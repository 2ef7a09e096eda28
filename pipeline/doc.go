// Package pipeline orchestrates a full unification run over a generated
// message tree: parse, unify, assemble, synthesize envelopes, commit.
//
// The run is a single-pass batch. Each stage consumes the in-memory output
// of the previous one and every produced file is staged in memory first;
// nothing touches the filesystem until all consistency checks pass, so a
// failed run never leaves a partially rewritten tree behind. The run
// honors context cancellation between stages.
//
// Every run yields a Report summarizing merged duplicate groups (ranked by
// occurrence count), exclusions, and per-family envelope results, and can
// be serialized as YAML or JSON.
package pipeline
