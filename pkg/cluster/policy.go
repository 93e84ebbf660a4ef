/*
File contains the distance policy: the switch between exact distances (all
prototypes) and approximated distances (the representative subset only).
Approximation is earned, not assumed -- a cluster is only trusted with it
once its mean representativeness clears a threshold, i.e once enough votes
back the pool's ranking.

*/

package cluster

import "seqclu/pkg/cluster/common"

// Policy decides, per cluster, whether distances may be approximated
// through the representative prototype subset.
type Policy struct {
	// ClusterAssignment enables the approximation mechanism as a whole.
	// With this false, distances are always exact.
	ClusterAssignment bool
	// MinimumRepresentativeness is the threshold the representative
	// subset's mean rep must reach before the subset is trusted.
	MinimumRepresentativeness float64
}

// UseApproximation reports whether distances to the given cluster may be
// approximated. Pure; does not compute any distances.
func (p *Policy) UseApproximation(c *Cluster) bool {
	if !p.ClusterAssignment {
		return false
	}
	return c.RepresentativeRep() >= p.MinimumRepresentativeness
}

// DistanceToCluster gives the policy-selected distance from a sequence to
// a cluster, along with whether the cheap approximated variant was used.
func (p *Policy) DistanceToCluster(c *Cluster, s common.Sequence) (dist float64, approximated bool, err error) {
	approximated = p.UseApproximation(c)
	dist, err = c.MeanDistance(s, approximated)
	return dist, approximated, err
}
