package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size        int
		wantFrom, wantLim int
	}{
		{page: 1, size: 8, wantFrom: 0, wantLim: 8},
		{page: 3, size: 8, wantFrom: 16, wantLim: 8},
		{page: 0, size: 8, wantFrom: 0, wantLim: 8},
		{page: -2, size: 0, wantFrom: 0, wantLim: PageSize},
		{page: 2, size: 500, wantFrom: PageSize, wantLim: PageSize},
	}
	for _, tt := range tests {
		from, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantFrom, from, "page=%d size=%d", tt.page, tt.size)
		assert.Equal(t, tt.wantLim, limit, "page=%d size=%d", tt.page, tt.size)
	}
}

func TestPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Pages(0, 8))
	assert.Equal(t, 1, Pages(8, 8))
	assert.Equal(t, 2, Pages(9, 8))
	assert.Equal(t, 3, Pages(17, 0))
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, ParseIntDefault("4", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("four", 1))
}
