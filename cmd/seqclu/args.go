/*
File contains the argv surface. All arguments are positional and strict;
anything malformed or out of range fails fast with a ConfigError before
the engine starts, so a run never begins on a half-understood setup.

Order:

	numPrototypes numRepresentativePrototypes maxPerTick
	dataSourceParameters seqCluParameters maxIter online onlySeqClu
	experimentName

dataSourceParameters is a JSON array without whitespace: either letter
tokens from the fixed alphabet (`["a","b","o"]`) or a benchmark selector
(`[true,"pebble"]`, the bool toggling sample noise). seqCluParameters is
`[bufferSize,minRep,ratio,clusterAssignment,buffering]`, or `[]` to skip
the live engine and run baselines only. Booleans must be lowercase json
booleans.

*/

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"seqclu/core/source"
)

// ConfigError is a malformed or out-of-domain argument. Always fatal
// before the run starts.
type ConfigError struct {
	Arg    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bad argument %v: %v", e.Arg, e.Reason)
}

// DataSourceParams selects what the stream generates.
type DataSourceParams struct {
	// Letters is set for character streams.
	Letters string
	// Bench is "pebble" or "plaid" for benchmark streams.
	Bench string
	// Noise toggles sample jitter for benchmark streams.
	Noise bool
}

// SeqCluParams are the live engine parameters. A nil *SeqCluParams means
// a baseline-only run.
type SeqCluParams struct {
	BufferSize        int
	MinRep            float64
	Ratio             float64
	ClusterAssignment bool
	Buffering         bool
}

// Args is the fully parsed and validated argv.
type Args struct {
	NumPrototypes     int
	NumRepresentative int
	MaxPerTick        int
	DataSource        DataSourceParams
	SeqClu            *SeqCluParams
	// MaxIter is parsed unconditionally but only used by the offline
	// baseline, so it is ignored when online and onlySeqClu are set.
	MaxIter    int
	Online     bool
	OnlySeqClu bool
	Experiment string
}

// ParseArgs validates the 9 positional arguments.
func ParseArgs(argv []string) (Args, error) {
	if len(argv) != 9 {
		return Args{}, &ConfigError{Arg: "argv", Reason: fmt.Sprintf("want 9 positional arguments, got %d", len(argv))}
	}

	var res Args
	var err error
	if res.NumPrototypes, err = parseIntArg("numPrototypes", argv[0], 1); err != nil {
		return Args{}, err
	}
	if res.NumRepresentative, err = parseIntArg("numRepresentativePrototypes", argv[1], 1); err != nil {
		return Args{}, err
	}
	if res.NumRepresentative > res.NumPrototypes {
		return Args{}, &ConfigError{
			Arg:    "numRepresentativePrototypes",
			Reason: fmt.Sprintf("%d exceeds numPrototypes (%d)", res.NumRepresentative, res.NumPrototypes),
		}
	}
	if res.MaxPerTick, err = parseIntArg("maxPerTick", argv[2], 1); err != nil {
		return Args{}, err
	}
	if res.DataSource, err = parseDataSource(argv[3]); err != nil {
		return Args{}, err
	}
	if res.SeqClu, err = parseSeqCluParams(argv[4]); err != nil {
		return Args{}, err
	}
	if res.MaxIter, err = parseIntArg("maxIter", argv[5], 0); err != nil {
		return Args{}, err
	}
	if res.Online, err = parseBoolArg("online", argv[6]); err != nil {
		return Args{}, err
	}
	if res.OnlySeqClu, err = parseBoolArg("onlySeqClu", argv[7]); err != nil {
		return Args{}, err
	}
	if argv[8] == "" {
		return Args{}, &ConfigError{Arg: "experimentName", Reason: "must not be empty"}
	}
	res.Experiment = argv[8]
	return res, nil
}

func parseIntArg(name, raw string, min int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Arg: name, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	if v < min {
		return 0, &ConfigError{Arg: name, Reason: fmt.Sprintf("%d is below the minimum of %d", v, min)}
	}
	return v, nil
}

// parseBoolArg accepts only lowercase json booleans, nothing else.
func parseBoolArg(name, raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &ConfigError{Arg: name, Reason: fmt.Sprintf("%q is not a lowercase boolean", raw)}
}

// checkStrictArray rejects anything that is not a compact json array.
func checkStrictArray(name, raw string) error {
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return &ConfigError{Arg: name, Reason: fmt.Sprintf("%q is not a json array", raw)}
	}
	if strings.ContainsAny(raw, " \t\n\r") {
		return &ConfigError{Arg: name, Reason: "whitespace inside the array is not allowed"}
	}
	return nil
}

func parseDataSource(raw string) (DataSourceParams, error) {
	const name = "dataSourceParameters"
	if err := checkStrictArray(name, raw); err != nil {
		return DataSourceParams{}, err
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return DataSourceParams{}, &ConfigError{Arg: name, Reason: err.Error()}
	}
	if len(items) == 0 {
		return DataSourceParams{}, &ConfigError{Arg: name, Reason: "must not be empty"}
	}

	// Benchmark selector: [bool,"pebble"|"plaid"].
	if noise, ok := items[0].(bool); ok {
		if len(items) != 2 {
			return DataSourceParams{}, &ConfigError{Arg: name, Reason: "benchmark selector must be [bool,name]"}
		}
		bench, ok := items[1].(string)
		if !ok || (bench != "pebble" && bench != "plaid") {
			return DataSourceParams{}, &ConfigError{Arg: name, Reason: `benchmark name must be "pebble" or "plaid"`}
		}
		return DataSourceParams{Bench: bench, Noise: noise}, nil
	}

	// Letter tokens from the fixed alphabet.
	var letters strings.Builder
	for _, item := range items {
		letter, ok := item.(string)
		if !ok || len(letter) != 1 || !strings.ContainsRune(source.CharAlphabet, rune(letter[0])) {
			return DataSourceParams{}, &ConfigError{
				Arg:    name,
				Reason: fmt.Sprintf("%v is not a letter of the alphabet %q", item, source.CharAlphabet),
			}
		}
		if strings.ContainsRune(letters.String(), rune(letter[0])) {
			return DataSourceParams{}, &ConfigError{Arg: name, Reason: fmt.Sprintf("duplicate letter %v", letter)}
		}
		letters.WriteString(letter)
	}
	return DataSourceParams{Letters: letters.String()}, nil
}

func parseSeqCluParams(raw string) (*SeqCluParams, error) {
	const name = "seqCluParameters"
	if err := checkStrictArray(name, raw); err != nil {
		return nil, err
	}
	if raw == "[]" {
		// Baseline-only run.
		return nil, nil
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &ConfigError{Arg: name, Reason: err.Error()}
	}
	if len(items) != 5 {
		return nil, &ConfigError{Arg: name, Reason: fmt.Sprintf("want 5 elements, got %d", len(items))}
	}

	bufferSize, ok := asInt(items[0])
	if !ok || bufferSize < 0 {
		return nil, &ConfigError{Arg: name, Reason: "bufferSize must be a non-negative integer"}
	}
	minRep, ok := items[1].(float64)
	if !ok || minRep < 0 || minRep > 1 {
		return nil, &ConfigError{Arg: name, Reason: "minimumRepresentativeness must be in [0,1]"}
	}
	ratio, ok := items[2].(float64)
	if !ok || ratio < 0 {
		return nil, &ConfigError{Arg: name, Reason: "prototypeValueRatio must be >= 0"}
	}
	clusterAssignment, ok := items[3].(bool)
	if !ok {
		return nil, &ConfigError{Arg: name, Reason: "clusterAssignment must be a lowercase boolean"}
	}
	buffering, ok := items[4].(bool)
	if !ok {
		return nil, &ConfigError{Arg: name, Reason: "buffering must be a lowercase boolean"}
	}
	if buffering && bufferSize == 0 {
		return nil, &ConfigError{Arg: name, Reason: "buffering requires a bufferSize above 0"}
	}

	return &SeqCluParams{
		BufferSize:        bufferSize,
		MinRep:            minRep,
		Ratio:             ratio,
		ClusterAssignment: clusterAssignment,
		Buffering:         buffering,
	}, nil
}

// asInt accepts json numbers only if they are whole.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
