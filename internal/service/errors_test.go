package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindBadRequest, KindOf(BadRequest("nope")))
	assert.Equal(t, KindInternal, KindOf(Internal("boom", errors.New("cause"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("taken"))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestInternalUnwrapsToCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Internal("lookup failed", cause)
	assert.True(t, errors.Is(err, cause))
}
