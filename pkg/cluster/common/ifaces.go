/*
Although this is an antipattern in Go, interfaces common for this project are
moved here, as the 'implicit' interface implementation isn't always implicit
between packages.


-------------------------------------------------------------------------------
Why:

Some methods in the cluster pkg accept/return an interface representation of a
type, where those interfaces were defined in the same pkg. Using those methods
from outside required the specific interfaces in the cluster pkg, i.e implicit
but _not_ between packages in that case.

-------------------------------------------------------------------------------
What:

A few interfaces that are layered and meant to be descriptive of:
- 'Sequences', the smallest type of data (ordered feature samples over time).
- Distance measurement between sequences (the capability, not an impl).


*/
package common

// SampleContainer is whatever contains time-ordered feature samples.
type SampleContainer interface {
	Samples() [][]float64
}

// Identified is whatever has a stable string identity.
type Identified interface {
	ID() string
}

// SequenceContainer is whatever fully represents an ingested sequence.
type SequenceContainer interface {
	SampleContainer
	Identified
	Tick() int
}

// DistanceMeasure is the capability of computing a non-negative dissimilarity
// between two sequences. Implementations keep a call counter so experiments
// can compare how many raw distance computations each variant spends.
type DistanceMeasure interface {
	Distance(a, b Sequence) (float64, error)
	Calls() int
	Reset()
}
