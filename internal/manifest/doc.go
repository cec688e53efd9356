// Package manifest loads the §3 data model from a YAML test fixture
// standing in for the real signed XML manifest the original loader
// reads (out of scope per spec.md §1's non-goals: "no manifest XML
// parser"). Grounded on the teacher's internal/config/loader.go
// (file-then-defaults loading shape, gopkg.in/yaml.v3) and
// internal/config/storage.go (validation-before-use pattern).
package manifest
