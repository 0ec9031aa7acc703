package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("pending")
	assert.True(t, ok)
	assert.Equal(t, StatusPending, st)

	st, ok = ParseStatus(" In_Progress ")
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, st)

	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestStringPatchThreeStates(t *testing.T) {
	var payload struct {
		Set     StringPatch `json:"set"`
		Cleared StringPatch `json:"cleared"`
		Omitted StringPatch `json:"omitted"`
	}
	err := json.Unmarshal([]byte(`{"set":"value","cleared":null}`), &payload)
	assert.NoError(t, err)

	assert.True(t, payload.Set.Present)
	assert.False(t, payload.Set.Null)
	assert.Equal(t, "value", payload.Set.Value)

	assert.True(t, payload.Cleared.Present)
	assert.True(t, payload.Cleared.Null)

	assert.False(t, payload.Omitted.Present)
}

func TestUpdateEmpty(t *testing.T) {
	assert.True(t, Update{}.Empty())

	st := StatusCompleted
	assert.False(t, Update{Status: &st}.Empty())
	assert.False(t, Update{AdminNote: StringPatch{Present: true, Null: true}}.Empty())
}
