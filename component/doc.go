// Package component provides the lifecycle state machine shared by every
// source, writer, the router, and the engine, plus the explicit factory
// registry used to turn a configuration's logical type name into a
// concrete plug-in instance.
//
// # Lifecycle
//
// Every long-lived piece of the pipeline embeds a *StateMachine and
// implements Lifecycle in terms of it:
//
//	type Source struct {
//		sm *component.StateMachine
//		// ...
//	}
//
//	func (s *Source) Initialize(name string) bool {
//		return s.sm.Initialize(func() error { return s.doInit(name) })
//	}
//
// StateMachine enforces the RunState transition graph (see RunState) with
// a CAS-guarded Transitioning intermediate state, so concurrent callers
// never observe a half-applied transition and illegal calls are no-ops.
//
// # Registration Pattern
//
// Registration is explicit, not reflection- or init()-based: each plug-in
// package exports a factory constructor, and the composition root
// (cmd/ingestd) registers every factory under its logical type name
// before constructing the Engine. This keeps registries free of global
// state and lets tests build an isolated Registry containing only the
// plug-ins they need.
//
//	registry := component.NewRegistry()
//	if err := registry.RegisterSource("udp", udpsource.New); err != nil {
//		return err
//	}
//	if err := registry.RegisterWriter("file", filewriter.New); err != nil {
//		return err
//	}
//
// # Factories
//
// A source or writer factory receives the instance name, its raw JSON
// config slice, and a Dependencies bundle; a transformer factory receives
// the transformer's info string and the Dependencies bundle. Each returns
// the constructed plug-in as an any, which the engine asserts against
// engine.Source, engine.Writer, or engine.Transformer when it wires the
// plug-in in.
package component
