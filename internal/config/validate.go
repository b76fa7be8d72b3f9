package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// ValidateWithCue checks a YAML file against a CUE schema file. Simulation
// configs and scenario scripts are both checked this way.
func ValidateWithCue(yamlFile, cueFile string) error {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML %s: %w", yamlFile, err)
	}
	schema, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	return validateBytes(yamlFile, data, cueFile, schema)
}

func validateBytes(name string, data []byte, schemaName string, schema []byte) error {
	ctx := cuecontext.New()

	f, err := yaml.Extract(name, data)
	if err != nil {
		return fmt.Errorf("cannot parse YAML %s: %w", name, err)
	}
	doc := ctx.BuildFile(f)
	if doc.Err() != nil {
		return fmt.Errorf("cannot build YAML %s: %w", name, doc.Err())
	}

	def := ctx.CompileBytes(schema, cue.Filename(schemaName))
	if def.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", def.Err())
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s does not match %s: %w", name, schemaName, err)
	}
	return nil
}
