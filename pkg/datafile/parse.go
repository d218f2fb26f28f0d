package datafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedVersions = map[string]bool{"2": true, "3": true, "4": true}

// Parse decodes a JSON datafile and builds its snapshot.
func Parse(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var df Datafile
	if err := dec.Decode(&df); err != nil {
		return nil, errors.Join(ErrInvalidDatafile, err)
	}
	return Build(&df)
}

// ParseYAML decodes a YAML datafile, the format used for hand-written
// fixtures, and builds its snapshot.
func ParseYAML(data []byte) (*Snapshot, error) {
	var df Datafile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, errors.Join(ErrInvalidDatafile, err)
	}
	return Build(&df)
}

// Load reads a datafile from disk, choosing the decoder by file extension.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datafile %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}
