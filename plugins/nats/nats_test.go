package nats_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	natsplugin "github.com/c360/ingestpipe/plugins/nats"
)

func TestNewSource_RejectsMissingSubject(t *testing.T) {
	raw, err := json.Marshal(natsplugin.SourceConfig{})
	require.NoError(t, err)
	_, err = natsplugin.NewSource("in", raw, component.Dependencies{})
	assert.Error(t, err)
}

func TestNewSource_RejectsMissingNATSClient(t *testing.T) {
	raw, err := json.Marshal(natsplugin.SourceConfig{Subject: "events.>"})
	require.NoError(t, err)
	_, err = natsplugin.NewSource("in", raw, component.Dependencies{})
	assert.Error(t, err)
}

func TestNewWriter_RejectsMissingSubject(t *testing.T) {
	raw, err := json.Marshal(natsplugin.WriterConfig{})
	require.NoError(t, err)
	_, err = natsplugin.NewWriter("out", raw, component.Dependencies{})
	assert.Error(t, err)
}

func TestNewWriter_RejectsMissingNATSClient(t *testing.T) {
	raw, err := json.Marshal(natsplugin.WriterConfig{Subject: "events.out"})
	require.NoError(t, err)
	_, err = natsplugin.NewWriter("out", raw, component.Dependencies{})
	assert.Error(t, err)
}
