// Package natsregistry is the bundled MetaRegistry implementation (spec
// §6a): it performs a get-route-config request/reply over a
// natsclient.Client and decodes the response into RouteDescriptors.
package natsregistry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/natsclient"
)

// Subject is the NATS subject invoked for a route-config snapshot.
const Subject = "get-route-config"

// DefaultRequestTimeout bounds how long Fetch waits for a reply.
const DefaultRequestTimeout = 5 * time.Second

type getRouteConfigRequest struct {
	DeploymentName string `json:"deployment_name"`
}

type routeEntry struct {
	DestName  string `json:"destName"`
	DestTopic string `json:"destTopic"`
	BatchSize int    `json:"batchSize"`
	XformName string `json:"xformName"`
}

type routeConfigResponse map[string]map[string]routeEntry

type errorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}

// Registry implements router.MetaRegistry over a shared NATS connection.
type Registry struct {
	client         *natsclient.Client
	deploymentName string
	timeout        time.Duration
}

// New constructs a Registry. client must already be connected by the
// time Initialize is called.
func New(client *natsclient.Client, deploymentName string) *Registry {
	return &Registry{client: client, deploymentName: deploymentName, timeout: DefaultRequestTimeout}
}

// Initialize reports whether the underlying NATS connection is healthy.
func (r *Registry) Initialize() bool {
	return r.client.IsHealthy()
}

// Fetch requests the current route configuration and decodes it into a
// flat RouteDescriptor slice. Transport and registry-reported errors are
// wrapped as transient, marshal and decode errors as invalid; the caller
// (router.Router.refresh) treats any error as "retain the previous table".
func (r *Registry) Fetch() ([]message.RouteDescriptor, error) {
	payload, err := json.Marshal(getRouteConfigRequest{DeploymentName: r.deploymentName})
	if err != nil {
		return nil, errors.WrapInvalid(err, "natsregistry", "Fetch", "marshal request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	reply, err := r.client.Request(ctx, Subject, payload, r.timeout)
	if err != nil {
		return nil, errors.WrapTransient(err, "natsregistry", "Fetch", "get-route-config request")
	}

	return decodeRouteConfig(reply)
}

// decodeRouteConfig parses a get-route-config reply into a flat
// RouteDescriptor slice. Split out from Fetch so it is testable without
// a live NATS connection.
func decodeRouteConfig(reply []byte) ([]message.RouteDescriptor, error) {
	var errResp errorResponse
	if err := json.Unmarshal(reply, &errResp); err == nil && errResp.ErrorMessage != "" {
		return nil, errors.WrapTransient(routeConfigError(errResp.ErrorMessage), "natsregistry", "Fetch", "registry reported error")
	}

	var resp routeConfigResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, errors.WrapInvalid(err, "natsregistry", "Fetch", "decode response")
	}

	var descriptors []message.RouteDescriptor
	for sourceProvider, topics := range resp {
		for sourceTopic, entry := range topics {
			descriptors = append(descriptors, message.RouteDescriptor{
				SourceProvider: sourceProvider,
				SourceTopic:    sourceTopic,
				DestProvider:   entry.DestName,
				DestTopic:      entry.DestTopic,
				MaxBatchSize:   entry.BatchSize,
				TransformMeta:  entry.XformName,
			})
		}
	}
	return descriptors, nil
}

type routeConfigError string

func (e routeConfigError) Error() string { return string(e) }
