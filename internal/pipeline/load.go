package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/cindergrid/automaton/internal/registry"
)

// Load reads a definition file and compiles it. The format is chosen
// by extension: .yaml/.yml or .cue.
func Load(path string) (registry.CreateSpec, error) {
	var (
		def *Definition
		err error
	)
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		def, err = LoadYAML(path)
	case ".cue":
		def, err = LoadCUE(path)
	default:
		return registry.CreateSpec{}, fmt.Errorf("load %s: unsupported definition format %q", path, ext)
	}
	if err != nil {
		return registry.CreateSpec{}, err
	}

	spec, err := Compile(def)
	if err != nil {
		return registry.CreateSpec{}, fmt.Errorf("load %s: %w", path, err)
	}
	return spec, nil
}

// LoadYAML reads and parses a YAML definition file.
func LoadYAML(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	def, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return def, nil
}

// ParseYAML parses a YAML definition. Unknown fields are rejected so a
// typoed parameter fails loudly instead of silently compiling to a
// different task.
func ParseYAML(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("parse yaml definition: empty document")
		}
		return nil, fmt.Errorf("parse yaml definition: %w", err)
	}
	return &def, nil
}

// LoadCUE reads and parses a CUE definition file.
func LoadCUE(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	def, err := ParseCUE(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return def, nil
}

// ParseCUE evaluates a CUE definition. The value must be concrete: a
// definition with open constraints is rejected before decoding.
func ParseCUE(data []byte) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parse cue definition: %w", err)
	}
	if err := v.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, fmt.Errorf("parse cue definition: %w", err)
	}

	var def Definition
	if err := v.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse cue definition: %w", err)
	}
	return &def, nil
}
