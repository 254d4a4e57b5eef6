package engine_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"wardsim/internal/engine"
)

func TestUUIDGeneratorFormat(t *testing.T) {
	gen := engine.UUIDGenerator{}
	id := gen.ID("sess")
	assert.Regexp(t, regexp.MustCompile(`^sess_[0-9a-f]{8}$`), id)

	// Two draws should differ.
	assert.NotEqual(t, id, gen.ID("sess"))
}

func TestFixedIDGeneratorCountsPerPrefix(t *testing.T) {
	gen := engine.NewFixedIDGenerator()
	assert.Equal(t, "sess_00000001", gen.ID("sess"))
	assert.Equal(t, "sess_00000002", gen.ID("sess"))
	assert.Equal(t, "evt_00000001", gen.ID("evt"), "counters are independent per prefix")
}
