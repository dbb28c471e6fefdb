package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"callaudio/internal/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const incomingSpeaker = `
device:
  has_earpiece: true
steps:
  - add: {id: c1, state: ringing}
  - state: {id: c1, from: ringing, to: active}
  - route: switch_speaker
  - remove: c1
`

func TestParseScenario(t *testing.T) {
	sc, err := parseScenario([]byte(incomingSpeaker))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 4)
	assert.Equal(t, "c1", sc.Steps[0].Add.ID)
	require.NotNil(t, sc.Steps[2].Route)
	assert.Equal(t, route.SwitchSpeaker, *sc.Steps[2].Route)
}

func TestParseScenarioRejectsBadSteps(t *testing.T) {
	cases := map[string]string{
		"two actions":   "steps:\n  - {remove: c1, tone: start}\n",
		"bad tone":      "steps:\n  - tone: loud\n",
		"unknown route": "steps:\n  - route: teleport\n",
		"focus":         "steps:\n  - route: focus_changed\n",
		"internal":      "steps:\n  - route: bluetooth_connect_timeout\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := parseScenario([]byte(incomingSpeaker))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runScenario(context.Background(), sc, &out, false))

	text := out.String()
	assert.Contains(t, text, "mode unfocused -> ringing")
	assert.Contains(t, text, "hw start_ringtone")
	assert.Contains(t, text, "hw set_speakerphone(true)")

	// the JSON summary follows the step log
	idx := strings.Index(text, "\n{")
	require.GreaterOrEqual(t, idx, 0)
	idx++
	var res struct {
		Published []json.RawMessage `json:"published"`
		Final     struct {
			Mode struct {
				State string `json:"state"`
			} `json:"mode"`
			Route struct {
				Focused bool `json:"focused"`
			} `json:"route"`
		} `json:"final"`
	}
	require.NoError(t, json.Unmarshal([]byte(text[idx:]), &res))
	assert.Equal(t, "unfocused", res.Final.Mode.State)
	assert.False(t, res.Final.Route.Focused)
	assert.Len(t, res.Published, 1, "nothing is published once focus is gone")
}
