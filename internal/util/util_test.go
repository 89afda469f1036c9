package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags(t *testing.T) {
	assert.Equal(t, "ON", OnOff(true))
	assert.Equal(t, "OFF", OnOff(false))
	assert.Equal(t, "1", OneZero(true))
	assert.Equal(t, "0", OneZero(false))
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt([]byte(" 50\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	v, err = ParseInt([]byte("-3"))
	require.NoError(t, err)
	assert.Equal(t, -3, v)

	_, err = ParseInt([]byte("abc"))
	assert.Error(t, err)

	_, err = ParseInt([]byte("12.5"))
	assert.Error(t, err)

	_, err = ParseInt([]byte("1e3"))
	assert.Error(t, err)
}

func TestParseInt_SaturatesOutOfRange(t *testing.T) {
	v, err := ParseInt([]byte("99999999999999999999"))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, v)

	v, err = ParseInt([]byte(" -99999999999999999999 "))
	require.NoError(t, err)
	assert.Equal(t, math.MinInt, v)
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "65535", Itoa(uint16(65535)))
	assert.Equal(t, "-1", Itoa(-1))
}
