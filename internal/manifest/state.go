package manifest

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
)

// State is the set of workbook paths already imported. It is loaded at the
// start of a run and rewritten in full after the run's transaction commits,
// which keeps reruns idempotent: a path present here is never reprocessed.
type State struct {
	path  string
	files map[string]struct{}
}

// LoadState reads the processed-file set from its JSON file. A missing file
// yields an empty set (first run).
func LoadState(path string) (*State, error) {
	s := &State{path: path, files: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, eris.Wrapf(err, "manifest: read state file %s", path)
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, eris.Wrapf(err, "manifest: parse state file %s", path)
	}
	for _, p := range paths {
		s.files[p] = struct{}{}
	}
	return s, nil
}

// Has reports whether a workbook path has already been imported.
func (s *State) Has(path string) bool {
	_, ok := s.files[path]
	return ok
}

// Add marks a workbook path as imported.
func (s *State) Add(path string) {
	s.files[path] = struct{}{}
}

// Len returns the number of tracked paths.
func (s *State) Len() int {
	return len(s.files)
}

// Save rewrites the state file as a sorted JSON array of paths.
func (s *State) Save() error {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	data, err := json.Marshal(paths)
	if err != nil {
		return eris.Wrap(err, "manifest: marshal state")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return eris.Wrapf(err, "manifest: write state file %s", s.path)
	}
	return nil
}
