package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisaks/lightedge/internal/config"
)

func TestCommand(t *testing.T) {
	feeds := config.FeedConfig{Pot: "pot", Button: "button", ResetButton: "reset"}
	tests := []struct {
		args          []string
		topic, output string
	}{
		{[]string{"toggle", "on"}, "button", "ON"},
		{[]string{"toggle", "OFF"}, "button", "OFF"},
		{[]string{"mode", "auto"}, "reset", "1"},
		{[]string{"mode", "manual"}, "reset", "0"},
		{[]string{"brightness", "42"}, "pot", "42"},
	}
	for _, tt := range tests {
		topic, payload, err := command(feeds, tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.topic, topic)
		assert.Equal(t, tt.output, payload)
	}

	for _, bad := range [][]string{{"toggle"}, {"toggle", "maybe"}, {"brightness", "101"}, {"blink", "1"}} {
		_, _, err := command(feeds, bad)
		assert.Error(t, err, bad)
	}
}
