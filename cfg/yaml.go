package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// profileFile is the yaml layout for SEQCLU_PROFILES:
//
//	profiles:
//	  - name: quick
//	    family: curves
//	    freqs: [1, 8]
//	    per_class: 5
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads extra experiment profiles from a yaml file. Profiles
// without a name or family are rejected, everything else falls back to
// defaults at Normalize time.
func LoadProfiles(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles at %q: %w", path, err)
	}

	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse profiles at %q: %w", path, err)
	}
	for i, p := range file.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile %d in %q has no name", i, path)
		}
		if p.Family == "" {
			return nil, fmt.Errorf("profile %q in %q has no family", p.Name, path)
		}
	}
	return file.Profiles, nil
}
