package components

import "github.com/pthm-cable/reef/genome"

// Identity bundles stable agent identity, lineage, and heritable traits.
type Identity struct {
	ID         uint64
	Generation uint32
	ParentID   uint64 // 0 = founder spawn, no parent
	Species    uint8  // index into the configured species list
	BornTick   int64

	// Genes are the heritable trait multipliers this agent was born with.
	Genes genome.Genome

	// LastPredatorTick is the most recent tick this agent took combat
	// damage. Used to infer predation as the death cause when no explicit
	// cause was recorded. -1 = never attacked.
	LastPredatorTick int64
}
