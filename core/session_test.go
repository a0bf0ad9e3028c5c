package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey_Validate(t *testing.T) {
	require.NoError(t, testKey.Validate())
	assert.Equal(t, "pt_agent/demo_client/session_1", testKey.String())

	err := SessionKey{AppName: "pt_agent"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user id, session id")
}

func TestSession_ApplyStateDeltaAndClone(t *testing.T) {
	s := NewSession(testKey)
	assert.Equal(t, testKey, s.Key())

	s.ApplyStateDelta(map[string]any{"a": 1, "b": "x"})
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("state not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("original should not have clone's new key")
	}
	assert.Equal(t, testKey, clone.Key())
}

func TestSession_AddEventAndHistory(t *testing.T) {
	s := NewSession(testKey)
	partial := true
	chunk := NewMessageEvent("pt_agent", "par")
	chunk.Partial = &partial

	s.AddEvent(NewUserMessageEvent("run-1", "hi"))
	s.AddEvent(chunk)
	s.AddEvent(NewMessageEvent("pt_agent", "hello"))
	s.AddEvent(NewEvent("run-1", "system"))

	all := s.GetEvents()
	require.Len(t, all, 4)

	all[0].Author = "changed"
	assert.Equal(t, RoleUser, s.GetEvents()[0].Author, "events slice should be copied on read")

	history := s.GetConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Content.Role)
	assert.Equal(t, "hello", history[1].Text())
}

func TestSession_StateSnapshotIsCopy(t *testing.T) {
	s := NewSession(testKey)
	s.SetState("goal", "Build muscle")
	snap := s.StateSnapshot()
	snap["goal"] = "changed"
	v, _ := s.GetState("goal")
	assert.Equal(t, "Build muscle", v)
}
