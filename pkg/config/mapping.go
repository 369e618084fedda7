package config

import (
	"bufio"
	"strings"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// MappingSeparator separates the source from the destination in a mapping
// file.
const MappingSeparator = "==>"

// Mapping is a single source and destination pair to synchronize.
type Mapping struct {
	Source      string
	Destination string
}

// ParseMapping reads the mappings in the file at `path`. Each line contains a
// single `source==>destination` pair. Blank lines, and lines starting with
// `#` are ignored.
func ParseMapping(path string) ([]Mapping, error) {
	f, err := fs.Open(path)
	if err != nil {
		if isPathNotFoundError(err) {
			return nil, errors.FileNotFound{Path: path}
		}
		return nil, errors.WithContext(err, "open")
	}
	defer f.Close()

	var mappings []Mapping
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, MappingSeparator)
		if len(parts) != 2 {
			return nil, errors.MappingError{Path: path, Line: lineNum, Text: line}
		}

		mapping := Mapping{
			Source:      strings.TrimSpace(parts[0]),
			Destination: strings.TrimSpace(parts[1]),
		}
		if mapping.Source == "" || mapping.Destination == "" {
			return nil, errors.MappingError{Path: path, Line: lineNum, Text: line}
		}
		mappings = append(mappings, mapping)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.WithContext(err, "read")
	}

	if len(mappings) == 0 {
		return nil, errors.NewFriendlyError("The mapping file %q doesn't contain any "+
			"`source==>destination` pairs.", path)
	}
	return mappings, nil
}
