package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fisaks/lightedge/internal/config"
)

func TestDescribe(t *testing.T) {
	feeds := config.FeedConfig{LDR: "ldr", Pot: "pot", Button: "button", ResetButton: "reset", LEDStatus: "led"}

	assert.Equal(t, "ambient=4242", describe(feeds, "ldr", []byte("4242")))
	assert.Equal(t, "brightness=50%", describe(feeds, "pot", []byte(" 50 ")))
	assert.Equal(t, `brightness="abc" (not a number)`, describe(feeds, "pot", []byte("abc")))
	assert.Equal(t, "led=ON", describe(feeds, "led", []byte("1")))
	assert.Equal(t, "led=OFF", describe(feeds, "led", []byte("0")))
	assert.Equal(t, "toggle=OFF", describe(feeds, "button", []byte("OFF")))
	assert.Equal(t, "mode=AUTO", describe(feeds, "reset", []byte("1")))
	assert.Equal(t, "mode=MANUAL", describe(feeds, "reset", []byte("0")))
	assert.Equal(t, "hello", describe(feeds, "other", []byte("hello")))
}
