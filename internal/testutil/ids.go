package testutil

// FixedIDGenerator returns the same mount id every time.
//
// Scenario runs log the mount id on every render; a fixed id keeps
// captured logs and snapshots byte-identical between runs.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
// If id is empty, Generate returns "test-mount".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-mount"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id. Implements engine.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
