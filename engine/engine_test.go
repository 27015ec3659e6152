package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/config"
	"github.com/c360/ingestpipe/engine"
	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/router"
	"github.com/c360/ingestpipe/writer"
)

type nullWriterHooks struct{}

func (nullWriterHooks) WriteImpl(source, topic, text string, seq []string) error         { return nil }
func (nullWriterHooks) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error { return nil }
func (nullWriterHooks) StopImpl() error                                                  { return nil }

type fetchNothingRegistry struct{}

func (fetchNothingRegistry) Initialize() bool { return true }
func (fetchNothingRegistry) Fetch() ([]message.RouteDescriptor, error) { return nil, nil }

func newRegistry(t *testing.T) *component.Registry {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, reg.RegisterWriter("noop", func(name string, raw json.RawMessage, deps component.Dependencies) (any, error) {
		return writer.NewBase(name, nullWriterHooks{}, nil, nil), nil
	}))
	return reg
}

func TestEngine_InitializeAndStartRunsEngineAndRouter(t *testing.T) {
	reg := newRegistry(t)
	e := engine.New(reg, component.Dependencies{}, nil)

	r := router.New(1, fetchNothingRegistry{}, e.ResolveRoute, nil, nil)
	e.SetRouter(r)

	cfg := &config.Config{
		DeployName:    "test",
		TargetThreads: 1,
		Writers: config.InstanceConfigs{
			"out": config.InstanceConfig{Type: "noop"},
		},
	}

	require.True(t, e.Initialize(cfg))
	require.True(t, e.Start())
	defer e.Stop()

	assert.Equal(t, component.StateRunning, e.GetState())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, component.StateRunning, r.GetState())
}

func TestEngine_StopTransitionsToStopped(t *testing.T) {
	reg := newRegistry(t)
	e := engine.New(reg, component.Dependencies{}, nil)
	r := router.New(1, fetchNothingRegistry{}, e.ResolveRoute, nil, nil)
	e.SetRouter(r)

	cfg := &config.Config{DeployName: "test", TargetThreads: 1}
	require.True(t, e.Initialize(cfg))
	require.True(t, e.Start())

	require.True(t, e.Stop())
	assert.Equal(t, component.StateStopped, e.GetState())
}
