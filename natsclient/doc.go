// Package natsclient provides a NATS client with circuit breaker protection and
// automatic reconnection for use by ingest sources, writers, and the route registry.
//
// The natsclient package wraps the standard NATS Go client with additional
// reliability features: a circuit breaker that fails fast after a threshold of
// consecutive failures (default: 5), exponential backoff while the circuit is
// open, and context propagation through subscribe and request calls (Publish
// accepts a context but does not use it).
//
// # Core Features
//
// Circuit Breaker Pattern: opens after repeated connection failures and is
// retested after an exponentially growing backoff, capped at a configurable
// maximum.
//
// Connection Lifecycle: Disconnected → Connecting → Connected → Reconnecting →
// Connected, with callbacks for health transitions.
//
// Request/Reply: Request issues a synchronous NATS request and returns the raw
// response payload, used by the route registry to invoke external route-config
// functions.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Subscribe(ctx, "sensors.>", func(ctx context.Context, data []byte) {
//	    // handle message
//	})
//
//	resp, err := client.Request(ctx, "get-route-config", payload, 5*time.Second)
package natsclient
