package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken(t *testing.T) {
	tests := []struct {
		highest int64
		floor   int64
		want    int64
	}{
		{0, 100, 101},
		{57, 100, 101},
		{100, 100, 101},
		{101, 100, 102},
		{4999, 100, 5000},
		{0, 1000, 1001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextToken(tt.highest, tt.floor), "NextToken(%d, %d)", tt.highest, tt.floor)
	}
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("op", nil))
	assert.ErrorIs(t, classify("op", ErrNotFound), ErrNotFound)

	v := &ValidationError{Field: "phone", Reason: "bad"}
	assert.Same(t, v, classify("op", v))

	err := classify("join", assert.AnError)
	var serr *StorageError
	if assert.ErrorAs(t, err, &serr) {
		assert.Equal(t, "join", serr.Op)
		assert.ErrorIs(t, err, assert.AnError)
	}
}
