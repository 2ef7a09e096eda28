// Package commands provides CLI command handlers for isotools.
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured outputs data in the specified format (json or yaml) to stdout.
// Returns an error if marshaling fails.
func OutputStructured(data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	fmt.Println(string(bytes))
	return nil
}

// subtreeFlag collects repeatable --subtree values.
type subtreeFlag []string

// String returns the string representation of the flag value
func (s *subtreeFlag) String() string {
	return strings.Join(*s, ",")
}

// Set appends one subtree name.
func (s *subtreeFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("subtree name must not be empty")
	}
	*s = append(*s, value)
	return nil
}

// familyFlag collects repeatable --family values mapping a family name to
// the top-level directories it covers.
type familyFlag map[string][]string

// String returns the string representation of the flag value
func (f familyFlag) String() string {
	if f == nil {
		return ""
	}
	pairs := make([]string, 0, len(f))
	for name, dirs := range f {
		pairs = append(pairs, name+"="+strings.Join(dirs, ","))
	}
	return strings.Join(pairs, " ")
}

// Set parses a "family=dir1,dir2" value and adds it to the map.
func (f familyFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid family format: %q (expected family=dir1,dir2)", value)
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return fmt.Errorf("family requires a non-empty name: %q", value)
	}
	var dirs []string
	for _, d := range strings.Split(parts[1], ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			return fmt.Errorf("family %q lists an empty directory: %q", name, value)
		}
		dirs = append(dirs, d)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("family %q requires at least one directory: %q", name, value)
	}
	f[name] = dirs
	return nil
}
