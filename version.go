package sketchvm

// EngineVersion is emitted verbatim as the first command of every run
// (VERSION_INFO, spec §4.3). spec.md requires *a* version string without
// pinning its value (SPEC_FULL.md §4, item 5).
const EngineVersion = "sketchvm/1.0"
