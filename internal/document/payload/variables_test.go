package payload

import (
	"encoding/json"
	"net/http"
	"testing"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variables(t *testing.T, raw string) []model.Variable {
	t.Helper()
	var out []model.Variable
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestMergeForReadDefaultsFromTemplate(t *testing.T) {
	defs := variables(t, `[{"_id":"v1","value":"X"}]`)

	merged := MergeForRead(nil, defs)

	out, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"v1","value":"X"}]`, string(out))
}

func TestMergeForReadOverrideWins(t *testing.T) {
	defs := variables(t, `[{"_id":"v1","value":"X","label":"Title"}]`)
	overrides := variables(t, `[{"_id":"v1","value":"Y"}]`)

	merged := MergeForRead(overrides, defs)

	out, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"v1","value":"Y","label":"Title"}]`, string(out))
}

func TestMergeForReadCompleteAndOrdered(t *testing.T) {
	defs := variables(t, `[
		{"_id":"5f1a2b3c4d5e6f7a8b9c0d01","value":{"type":"text","content":"a"}},
		{"_id":"5f1a2b3c4d5e6f7a8b9c0d02","value":{"type":"text","content":"b"}},
		{"_id":"5f1a2b3c4d5e6f7a8b9c0d03","value":{"type":"text","content":"c"}}
	]`)
	// Overrides arrive in a different order, one with upper-case hex.
	overrides := variables(t, `[
		{"_id":"5F1A2B3C4D5E6F7A8B9C0D03","value":{"type":"text","content":"C"}},
		{"_id":{"$oid":"5f1a2b3c4d5e6f7a8b9c0d01"},"value":{"type":"text","content":"A"}}
	]`)

	merged := MergeForRead(overrides, defs)

	require.Len(t, merged, 3)
	for i, def := range defs {
		assert.Equal(t, def.ID, merged[i].ID, "template order is preserved")
	}
	assert.JSONEq(t, `{"type":"text","content":"A"}`, string(merged[0].Value))
	assert.JSONEq(t, `{"type":"text","content":"b"}`, string(merged[1].Value))
	assert.JSONEq(t, `{"type":"text","content":"C"}`, string(merged[2].Value))
}

func TestMergeForReadDoesNotMutateDefinitions(t *testing.T) {
	defs := variables(t, `[{"_id":"v1","value":"X","label":"a"}]`)
	overrides := variables(t, `[{"_id":"v1","label":"b"}]`)

	_ = MergeForRead(overrides, defs)

	assert.JSONEq(t, `"a"`, string(defs[0].Attrs["label"]))
}

func TestMergeForReadNoDefinitions(t *testing.T) {
	assert.Nil(t, MergeForRead(variables(t, `[{"_id":"v1","value":"Y"}]`), nil))
}

func TestMergeForWriteReplacesAndPreserves(t *testing.T) {
	existing := variables(t, `[{"_id":"v1","value":"A"},{"_id":"v2","value":"B"}]`)
	incoming := variables(t, `[{"_id":"v1","value":"Z"},{"_id":"v3","value":"C"}]`)
	ids := []model.ID{"v1", "v2", "v3"}

	out, err := MergeForWrite(existing, incoming, ids)
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"v2","value":"B"},{"_id":"v1","value":"Z"},{"_id":"v3","value":"C"}]`, string(raw))
}

func TestMergeForWriteIsIdempotent(t *testing.T) {
	existing := variables(t, `[{"_id":"v1","value":"A"},{"_id":"v2","value":"B"}]`)
	incoming := variables(t, `[{"_id":"v2","value":"Z"}]`)
	ids := []model.ID{"v1", "v2"}

	once, err := MergeForWrite(existing, incoming, ids)
	require.NoError(t, err)
	twice, err := MergeForWrite(once, incoming, ids)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestMergeForWriteRejectsUnknownID(t *testing.T) {
	existing := variables(t, `[{"_id":"v1","value":"A"}]`)
	incoming := variables(t, `[{"_id":"v1","value":"Z"},{"_id":"unknown","value":"Q"}]`)

	out, err := MergeForWrite(existing, incoming, []model.ID{"v1"})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, http.StatusBadRequest))
}

func TestMergeForWriteEmptyTemplateRejectsAny(t *testing.T) {
	_, err := MergeForWrite(nil, variables(t, `[{"_id":"v1"}]`), nil)
	assert.True(t, apperr.Is(err, http.StatusBadRequest))
}

func TestMergeForWriteNoIncoming(t *testing.T) {
	existing := variables(t, `[{"_id":"v1","value":"A"}]`)

	out, err := MergeForWrite(existing, []model.Variable{}, []model.ID{"v1"})
	require.NoError(t, err)
	assert.Equal(t, existing, out)
}

func TestDefinitionIDs(t *testing.T) {
	defs := variables(t, `[{"_id":"a"},{"_id":"b"}]`)
	assert.Equal(t, []model.ID{"a", "b"}, DefinitionIDs(defs))
}
