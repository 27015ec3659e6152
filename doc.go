// Package ingestpipe implements a message ingest pipeline: configurable
// Sources pull or receive records and stage them into an Ingest Router,
// which consults a RouteTable built from a MetaRegistry to hand each
// record to the single Writer its table entry names, optionally passing it through a
// Transformer first.
//
// # Architecture
//
//	┌────────┐      ┌─────────────────┐      ┌─────────────────┐
//	│ Source │ ───▶ │  Ingest Router   │ ───▶ │ TransformerWriter│ ───▶ Writer
//	└────────┘      │  (RouteTable +   │      │ (optional xform) │
//	                │   WorkPool)      │      └─────────────────┘
//	                └─────────────────┘
//	                         ▲
//	                         │ refresh
//	                   MetaRegistry
//	                (NATS request/reply)
//
// The Engine (package engine) is the process owner: it instantiates
// every configured Source and Writer through the factory Registry
// (package component), wires them to the Router, drives their
// Initialize/Start/Stop lifecycle in the order the specification
// requires, and restarts any component that reports itself Failed.
//
// # Plug-ins
//
// Concrete Source, Writer, and Transformer implementations live under
// plugins/ and are registered with a component.Registry by cmd/ingestd,
// under a logical type name (e.g. "nats", "udp", "file", "http", "jsonmap") rather than
// through reflection or package init() side effects — see
// cmd/ingestd/main.go for the full registration list.
//
// # Configuration
//
// Configuration (package config) is a single JSON document (or YAML, for a
// .yaml/.yml path) loaded once
// at startup: a deployment name, a target thread count for the Router's
// worker pool, and named Sources/Writers instance configs, each carrying
// its own logical type identifier and raw JSON body.
package ingestpipe
