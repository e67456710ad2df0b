package itemqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryKindString(t *testing.T) {
	tests := []struct {
		kind entryKind
		want string
	}{
		{kindItem, "item"},
		{kindPause, "pause"},
		{kindResume, "resume"},
		{kindNoop, "noop"},
		{entryKind(42), "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.kind.String())
	}
}

func TestEntryValue(t *testing.T) {
	v, ok := Item(5).Value()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = PausePoint[int]().Value()
	assert.False(t, ok)
	assert.True(t, PausePoint[int]().IsPause())
	assert.True(t, resumeMarker[int]().IsControl())
	assert.False(t, ItemWith(1, ItemOptions{ContinueOnError: true}).IsControl())
}
