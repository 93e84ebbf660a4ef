package engine

import "log"

// Logger is a logger for the streaming engine in this pkg. It is primarily
// used in EngineConfig. See method-specific docs for more details.
type Logger interface {
	// LogTask is called rapidly for each engine step, with a string
	// containing the task name and some additional info such as tick
	// numbers and sequence/cluster ids.
	LogTask(string)
	// LogMeta is intended for run monitoring, with data pulled from the
	// cluster registry after each tick. More info about the data itself
	// is documented on the MetaData type.
	LogMeta(MetaData)
}

// MetaDataItem contains some metadata for a single cluster.
type MetaDataItem struct {
	// LenPrototypes is the current amount of prototypes in the cluster.
	LenPrototypes int
	// MeanRep is the mean representativeness over those prototypes.
	MeanRep float64
	// Approximating is whether the distance policy currently trusts the
	// cluster's representative subset.
	Approximating bool
}

// MetaData is used for run info that is logged through the Logger interface
// in this pkg. It has a single field (Items) which simply is a map where
// keys are cluster ids and vals are MetaDataItem.
type MetaData struct {
	Items map[string]MetaDataItem
}

type defaultLogger struct {
	metaData MetaData
}

func (l *defaultLogger) LogMeta(m MetaData) { l.metaData = m }

func (l *defaultLogger) LogTask(s string) {
	log.Printf("clusters: %3d | task: %v", len(l.metaData.Items), s)
}
