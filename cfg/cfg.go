/*
This pkg is a system-wide configuration, no detail is too large or small,
all inclusive and nicely global. Experiment profiles (what data to stream
and with which run parameters) live here as well, both the builtin ones
and whatever a yaml file pointed to by SEQCLU_PROFILES adds on top.

Note the split with the argv surface (cmd/seqclu/args.go): everything the
positional arguments define (prototype bounds, tick cap, buffering, the
engine's voting parameters, maxIter) comes from argv only. Profiles carry
what argv does not: stream generation and run-level knobs.

*/
package cfg

import "os"

/*
--------------------------------------------------------------------------------
	Environment. Keeping the lookups here at the top so there is exactly
	one place to check which env vars the system reacts to.
--------------------------------------------------------------------------------
*/

// EnvDB names the env var holding the sqlite path for result storage.
// Empty/unset means results only go to an in-memory store.
const EnvDB = "SEQCLU_DB"

// EnvProfiles names the env var holding a yaml file with extra experiment
// profiles. They are merged over the builtin ones by name.
const EnvProfiles = "SEQCLU_PROFILES"

// DBPath gives the configured sqlite path, or "".
func DBPath() string { return os.Getenv(EnvDB) }

/*
--------------------------------------------------------------------------------
	Defaults. These are fallbacks for profile fields left at zero, so a
	minimal yaml profile stays minimal.
--------------------------------------------------------------------------------
*/

// Representativeness multiplier used where no voting parameters exist
// (the baselines).
var DefaultRatio = 1.0

// New-cluster formation factor (see engine.EngineConfig).
var DefaultFormationFactor = 2.0

// Rng seed for runs that don't pin one.
var DefaultSeed int64 = 1

/*
--------------------------------------------------------------------------------
	Profiles.
--------------------------------------------------------------------------------
*/

// Profile is one named experiment setup: how to generate the stream and
// the run-level knobs the argv surface does not cover. Zero fields fall
// back to the defaults above (see Normalize).
type Profile struct {
	Name string `yaml:"name"`

	// Family picks the stream generator: chars, curves, pebble or plaid.
	Family string `yaml:"family"`
	// NumClasses sizes the pebble/plaid families.
	NumClasses int `yaml:"num_classes"`
	// Freqs sizes the curves family (one class per frequency).
	Freqs []float64 `yaml:"freqs"`
	// PerClass is how many sequences each class contributes.
	PerClass int `yaml:"per_class"`
	// Steps is the sequence length.
	Steps int `yaml:"steps"`
	// Noise is the per-sample jitter stddev.
	Noise float64 `yaml:"noise"`
	// PerTick is how many sequences arrive per tick.
	PerTick int `yaml:"per_tick"`

	// FormationFactor is the engine's new-cluster formation threshold
	// multiplier (see engine.EngineConfig).
	FormationFactor float64 `yaml:"formation_factor"`

	// NumClusters is k for the baselines.
	NumClusters int `yaml:"num_clusters"`

	Seed int64 `yaml:"seed"`
}

// Normalize fills zero fields with the pkg defaults.
func (p *Profile) Normalize() {
	if p.FormationFactor == 0 {
		p.FormationFactor = DefaultFormationFactor
	}
	if p.Seed == 0 {
		p.Seed = DefaultSeed
	}
	if p.PerClass == 0 {
		p.PerClass = 20
	}
	if p.PerTick == 0 {
		p.PerTick = 1
	}
}

// Builtin profiles, one per stream family.
var builtins = []Profile{
	{
		Name:        "chars",
		Family:      "chars",
		NumClusters: 5,
	},
	{
		Name:        "curves",
		Family:      "curves",
		Freqs:       []float64{1, 2, 4},
		NumClusters: 3,
	},
	{
		Name:        "pebble",
		Family:      "pebble",
		NumClasses:  3,
		NumClusters: 3,
	},
	{
		Name:        "plaid",
		Family:      "plaid",
		NumClasses:  3,
		NumClusters: 3,
	},
}

// Profiles gives all known profiles by name: the builtin ones, with
// whatever the SEQCLU_PROFILES yaml adds merged over them. All profiles
// come back normalized.
func Profiles() (map[string]Profile, error) {
	res := make(map[string]Profile, len(builtins))
	for _, p := range builtins {
		p.Normalize()
		res[p.Name] = p
	}

	path := os.Getenv(EnvProfiles)
	if path == "" {
		return res, nil
	}
	extra, err := LoadProfiles(path)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		p.Normalize()
		res[p.Name] = p
	}
	return res, nil
}
