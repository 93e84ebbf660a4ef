/*
File contains the cluster registry; it owns all clusters of a run, hands out
stable ids and keeps creation order (which doubles as the deterministic
tie-break order when the engine picks between equally distant clusters).

*/

package cluster

import (
	"fmt"

	"seqclu/pkg/cluster/common"
)

// Registry owns the clusters of a single run. The zero value is not
// usable, use NewRegistry.
type Registry struct {
	clusters []*Cluster
	byID     map[string]*Cluster

	// Template shared by all created clusters.
	numPrototypes int
	numRepr       int
	ratio         float64
	distance      common.DistanceMeasure
}

// NewRegistryArgs are arguments for NewRegistry. Validity rules are the
// same as for NewClusterArgs (minus id/tick, the registry assigns those).
type NewRegistryArgs struct {
	NumPrototypes     int
	NumRepresentative int
	Ratio             float64
	Distance          common.DistanceMeasure
}

// Bool checks validity of args, as specified in the NewRegistryArgs docs.
func (args *NewRegistryArgs) Bool() bool {
	probe := NewClusterArgs{
		ID:                "probe",
		NumPrototypes:     args.NumPrototypes,
		NumRepresentative: args.NumRepresentative,
		Ratio:             args.Ratio,
		Distance:          args.Distance,
	}
	return probe.Bool()
}

// NewRegistry sets up a Registry with the given args. Returns (nil, false)
// if the args are invalid, as specified in the NewRegistryArgs docs.
func NewRegistry(args NewRegistryArgs) (*Registry, bool) {
	if !args.Bool() {
		return nil, false
	}
	res := Registry{
		byID:          make(map[string]*Cluster),
		numPrototypes: args.NumPrototypes,
		numRepr:       args.NumRepresentative,
		ratio:         args.Ratio,
		distance:      args.Distance,
	}
	return &res, true
}

// Len gives the current amount of clusters.
func (r *Registry) Len() int { return len(r.clusters) }

// Clusters gives all clusters in creation order.
func (r *Registry) Clusters() []*Cluster { return r.clusters }

// Get gives the cluster with the given id, or (nil, false).
func (r *Registry) Get(id string) (*Cluster, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// CreateCluster makes a new empty cluster with the next id in sequence
// (c0, c1, ...) and registers it.
func (r *Registry) CreateCluster(tick int) *Cluster {
	id := fmt.Sprintf("c%d", len(r.clusters))
	c, ok := NewCluster(NewClusterArgs{
		ID:                id,
		Tick:              tick,
		NumPrototypes:     r.numPrototypes,
		NumRepresentative: r.numRepr,
		Ratio:             r.ratio,
		Distance:          r.distance,
	})
	// Args were validated in NewRegistry, so this only trips on a
	// programming error.
	if !ok {
		panic("registry holds invalid cluster args")
	}

	r.clusters = append(r.clusters, c)
	r.byID[id] = c
	return c
}
