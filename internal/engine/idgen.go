package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for sessions and events. The default is
// UUID-backed; tests substitute FixedIDGenerator for deterministic output.
type IDGenerator interface {
	ID(prefix string) string
}

// UUIDGenerator produces prefix_xxxxxxxx identifiers from random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) ID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:8]
}

// FixedIDGenerator produces prefix_00000001, prefix_00000002, ... per
// prefix. Not safe for concurrent use; intended for tests.
type FixedIDGenerator struct {
	counters map[string]int
}

func NewFixedIDGenerator() *FixedIDGenerator {
	return &FixedIDGenerator{counters: make(map[string]int)}
}

func (g *FixedIDGenerator) ID(prefix string) string {
	g.counters[prefix]++
	return fmt.Sprintf("%s_%08d", prefix, g.counters[prefix])
}
