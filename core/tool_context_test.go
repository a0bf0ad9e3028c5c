package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolContext_BasicFunctionality(t *testing.T) {
	rc, _ := newRunContextForTest()
	tc := NewToolContext(rc, "call-1")

	assert.Equal(t, testKey, tc.SessionKey())
	assert.Equal(t, "run-x", tc.RunID())
	assert.Equal(t, "call-1", tc.FunctionCallID())
	assert.Equal(t, "pt_agent", tc.AgentName())
	assert.Equal(t, "Create a training plan", tc.UserContent().Text())
	assert.NotNil(t, tc.Logger())
	assert.NotNil(t, tc.Context())
}

func TestToolContext_StateManagement(t *testing.T) {
	rc := NewRunContext(context.Background(), testKey, "r", AgentInfo{Name: "pt_agent"}, Content{}, nil, nil, nil, Stores{}, nil, nil)
	tc := NewToolContext(rc, "call-1")

	tc.SetState("plan_week", 1)
	v, ok := tc.GetState("plan_week")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, rc.StateDelta["plan_week"])
	assert.Equal(t, 1, tc.Actions().StateDelta["plan_week"])
}

func TestToolContext_ApplyActions(t *testing.T) {
	rc, _ := newRunContextForTest()
	tc := NewToolContext(rc, "call-1")
	tc.SetState("k", "v")
	tc.SkipSummarization()
	require.NoError(t, tc.SaveArtifact("notes.md", []byte("abc")))

	ev := NewFunctionResponseEvent("pt_agent", "call-1", "f", "ok", nil)
	tc.ApplyActions(&ev)

	assert.Equal(t, "v", ev.Actions.StateDelta["k"])
	assert.Equal(t, 3, ev.Actions.ArtifactDelta["notes.md"])
	assert.True(t, ev.IsFinalResponse())
}

func TestToolContext_ArtifactsAndMemory(t *testing.T) {
	rc, _ := newRunContextForTest()
	tc := NewToolContext(rc, "call-1")

	require.NoError(t, tc.SaveArtifact("a1", []byte("data")))
	b, err := tc.LoadArtifact("a1")
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	require.NoError(t, rc.Stores.Memory.Store("demo_client", "knee injury 2021", nil))
	res, err := tc.SearchMemory("knee", 10)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	rc.Stores = Stores{}
	_, err = tc.SearchMemory("knee", 1)
	assert.ErrorIs(t, err, ErrStoreNotConfigured)
	_, err = tc.LoadArtifact("a1")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)
}

func TestToolContext_BindContext(t *testing.T) {
	rc, _ := newRunContextForTest()
	tc := NewToolContext(rc, "call-1")

	ctx, cancel := context.WithCancel(context.Background())
	tc.BindContext(ctx)
	cancel()

	assert.ErrorIs(t, tc.Context().Err(), context.Canceled)
	assert.NoError(t, rc.Context.Err())
}
