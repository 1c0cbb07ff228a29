package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionSetAdd(t *testing.T) {
	ps := PermissionSet{}

	ps.Add("leads", "view_all")
	ps.Add("leads", "create")
	ps.Add("leads", "view_all") // duplicate

	assert.Equal(t, []string{"create", "view_all"}, ps["leads"])
	assert.True(t, ps.Has("leads", "create"))
	assert.False(t, ps.Has("leads", "delete"))
	assert.False(t, ps.Has("contacts", "view_all"))
}

func TestPermissionSetUnion(t *testing.T) {
	a := PermissionSet{"leads": {"create", "view_all"}}
	b := PermissionSet{
		"leads":    {"edit", "view_all"},
		"contacts": {"create"},
	}

	a.Union(b)

	assert.Equal(t, []string{"create", "edit", "view_all"}, a["leads"])
	assert.Equal(t, []string{"create"}, a["contacts"])
	// Union does not mutate the argument.
	assert.Equal(t, []string{"edit", "view_all"}, b["leads"])
}

func TestPermissionSetClone(t *testing.T) {
	orig := PermissionSet{"leads": {"create"}}
	cp := orig.Clone()

	cp.Add("leads", "delete")
	cp.Add("tasks", "create")

	assert.Equal(t, []string{"create"}, orig["leads"])
	assert.NotContains(t, orig, "tasks")
}

func TestPermissionSetJSONShape(t *testing.T) {
	ps := PermissionSet{
		"leads": {"create", "view_all"},
		"admin": {},
	}

	data, err := json.Marshal(ps)
	require.NoError(t, err)

	var decoded PermissionSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ps, decoded)
	// Seeded empty modules survive the round trip as empty arrays.
	assert.Contains(t, string(data), `"admin":[]`)
}
