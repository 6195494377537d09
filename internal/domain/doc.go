// Package domain contains the core entities of the content promotion
// pipeline: pipeline items, their typed payloads, the stage state machine,
// and the append-only records (failures, metrics, review queue entries)
// the pipeline produces.
//
// Domain types are plain structs with explicit validation methods and no
// dependencies on storage or transport concerns.
package domain
