// Package config loads the ingest pipeline's JSON configuration file:
// deployment identity, Router thread count, and the logical-type and
// per-instance maps for sources, writers, and transformers (spec §6).
package config
