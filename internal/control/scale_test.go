package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDutyScale_Level(t *testing.T) {
	tests := []struct {
		percent int
		want    uint16
	}{
		{-5, 384},
		{0, 384},
		{1, 1035},
		{50, 32959},
		{100, 65535},
		{250, 65535},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultDutyScale.Level(tt.percent), "percent %d", tt.percent)
	}
}

func TestDutyScale_PercentClampsToOne(t *testing.T) {
	assert.Equal(t, 1, DefaultDutyScale.Percent(384))
	assert.Equal(t, 1, DefaultDutyScale.Percent(0))
	assert.Equal(t, 100, DefaultDutyScale.Percent(65535))
	assert.Equal(t, 49, DefaultDutyScale.Percent(32959))
}
