package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"wardsim/internal/engine"
)

func TestErrorMessageIncludesContext(t *testing.T) {
	err := engine.NewSessionNotFound("sess_abc")
	assert.Equal(t, "SESSION_NOT_FOUND: session not found (session=sess_abc)", err.Error())

	err = engine.NewScenarioNotFound("night_shift")
	assert.Equal(t, "SCENARIO_NOT_FOUND: scenario not found (scenario=night_shift)", err.Error())

	err = engine.NewInvalidAction(engine.ActionKind("teleport"))
	assert.Equal(t, `INVALID_ACTION: unknown action type "teleport"`, err.Error())
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := engine.NewSessionComplete("sess_abc")
	wrapped := fmt.Errorf("executing action: %w", base)

	assert.Equal(t, engine.ErrCodeSessionComplete, engine.CodeOf(wrapped))
	assert.True(t, engine.IsSessionComplete(wrapped))
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, engine.ErrorCode(""), engine.CodeOf(errors.New("plain")))
	assert.False(t, engine.IsNotFound(errors.New("plain")))
	assert.False(t, engine.IsSessionComplete(nil))
}

func TestIsNotFoundCoversBothCodes(t *testing.T) {
	assert.True(t, engine.IsNotFound(engine.NewSessionNotFound("sess_abc")))
	assert.True(t, engine.IsNotFound(engine.NewScenarioNotFound("night_shift")))
	assert.False(t, engine.IsNotFound(engine.NewSessionComplete("sess_abc")))
}
