package testutil

// FixedIDGenerator returns the same run ID every time.
//
// This enables deterministic ingestion reports and golden snapshot
// comparison. If id is empty, "test-run-default" is used.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed run ID generator.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements ingest.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
