package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagctl/internal/nagios"
	"nagctl/internal/reconcile"
)

func TestParseParams(t *testing.T) {
	t.Run("set and remove", func(t *testing.T) {
		params, err := parseParams(
			[]string{"host_name=web1", "alias=Web 1", "notes=a=b"},
			[]string{"address"},
		)
		require.NoError(t, err)
		assert.Equal(t, "web1", params["host_name"])
		assert.Equal(t, "Web 1", params["alias"])
		assert.Equal(t, "a=b", params["notes"], "value keeps everything after the first =")
		value, ok := params["address"]
		require.True(t, ok)
		assert.Nil(t, value)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseParams([]string{"host_name"}, nil)
		assert.Error(t, err)

		_, err = parseParams([]string{"=web1"}, nil)
		assert.Error(t, err)

		_, err = parseParams(nil, []string{""})
		assert.Error(t, err)
	})
}

func TestKeyParams(t *testing.T) {
	params := keyParams(nagios.TypeHost, "web1", map[string]interface{}{"alias": "Web 1"})
	assert.Equal(t, "web1", params["host_name"])
	assert.Equal(t, "Web 1", params["alias"])

	params = keyParams(nagios.TypeService, "", map[string]interface{}{"host_name": "web1"})
	_, ok := params["service_description"]
	assert.False(t, ok, "no bare name, no primary key entry")
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(reconcile.Result{Changed: true}))

	err := resultError(reconcile.Result{Failed: true, Message: "boom"})
	require.Error(t, err)
	assert.EqualError(t, err, "boom")

	err = resultError(reconcile.Result{Failed: true, Reverted: true, Message: "bad config"})
	var rerr *revertedError
	require.ErrorAs(t, err, &rerr)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCodeReverted, getExitCode(&revertedError{message: "x"}))
	assert.Equal(t, ExitCodeError, getExitCode(assert.AnError))
}
