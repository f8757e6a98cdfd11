package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProgress(t *testing.T) {
	status, err := MustNew().Decode([]byte(`{"state":"PROGRESS","current":10,"total":50,"status":"Refreshing cards"}`))
	require.NoError(t, err)

	assert.Equal(t, "PROGRESS", status.State)
	assert.Equal(t, 10, status.Current)
	assert.Equal(t, 50, status.Total)
	assert.Equal(t, "Refreshing cards", status.Status)
	assert.False(t, status.Locked)
	assert.False(t, status.HasResult())
	assert.Equal(t, 20, status.Percent())
}

func TestDecodeResultPresence(t *testing.T) {
	d := MustNew()

	status, err := d.Decode([]byte(`{"state":"SUCCESS","current":100,"total":100,"result":"Refresh Complete"}`))
	require.NoError(t, err)
	require.True(t, status.HasResult())
	assert.Equal(t, "Refresh Complete", *status.Result)

	status, err = d.Decode([]byte(`{"state":"FAILURE","current":1,"total":1,"status":"boom"}`))
	require.NoError(t, err)
	assert.False(t, status.HasResult())
	assert.Equal(t, "FAILURE, please try again.", status.TerminalMessage())

	status, err = d.Decode([]byte(`{"state":"SUCCESS","result":null}`))
	require.NoError(t, err)
	assert.False(t, status.HasResult())
}

func TestDecodeLockedPresence(t *testing.T) {
	d := MustNew()

	status, err := d.Decode([]byte(`{"state":"SUCCESS","current":0,"total":1,"locked":"Task is Locked"}`))
	require.NoError(t, err)
	assert.True(t, status.Locked)

	status, err = d.Decode([]byte(`{"state":"PROGRESS","locked":true}`))
	require.NoError(t, err)
	assert.True(t, status.Locked)

	status, err = d.Decode([]byte(`{"state":"PROGRESS"}`))
	require.NoError(t, err)
	assert.False(t, status.Locked)
}

func TestDecodeMalformedCounters(t *testing.T) {
	d := MustNew()

	status, err := d.Decode([]byte(`{"state":"PROGRESS","current":"7","total":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, 7, status.Current)
	assert.Equal(t, 0, status.Total)
	assert.Equal(t, 0, status.Percent())

	status, err = d.Decode([]byte(`{"state":"PROGRESS","current":2.9,"total":-3}`))
	require.NoError(t, err)
	assert.Equal(t, 2, status.Current)
	assert.Equal(t, 0, status.Total)

	status, err = d.Decode([]byte(`{"state":"PENDING"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, status.Percent())
}

func TestDecodeErrors(t *testing.T) {
	d := MustNew()

	_, err := d.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = d.Decode([]byte(`{"current":1,"total":2}`))
	assert.Error(t, err)

	_, err = d.Decode([]byte(`{"state":{"nested":true}}`))
	assert.Error(t, err)
}

func TestCustomFieldPaths(t *testing.T) {
	d, err := New(FieldPaths{
		State:   "$.task.state",
		Current: "$.task.meta.done",
		Total:   "$.task.meta.of",
		Result:  "$.task.result",
	})
	require.NoError(t, err)

	status, err := d.Decode([]byte(`{"task":{"state":"PROGRESS","meta":{"done":3,"of":4}}}`))
	require.NoError(t, err)
	assert.Equal(t, "PROGRESS", status.State)
	assert.Equal(t, 75, status.Percent())
}

func TestNewRejectsBadPath(t *testing.T) {
	_, err := New(FieldPaths{State: "state"})
	assert.Error(t, err)
}

func TestCoerceToCount(t *testing.T) {
	n, err := CoerceToCount(float64(42))
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = CoerceToCount(" 12.7 ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = CoerceToCount(true)
	assert.Error(t, err)
}
