package gamedata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	blocksSchemaURL = "https://voxel-engine.local/schema/blocks.schema.json"
	biomesSchemaURL = "https://voxel-engine.local/schema/biomes.schema.json"
)

var (
	//go:embed schema/blocks.schema.json
	blocksSchema []byte
	//go:embed schema/biomes.schema.json
	biomesSchema []byte

	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	sources := map[string][]byte{
		blocksSchemaURL: blocksSchema,
		biomesSchemaURL: biomesSchema,
	}
	for url, src := range sources {
		if err := c.AddResource(url, bytes.NewReader(src)); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", url, err)
			return
		}
	}
	schemas = make(map[string]*jsonschema.Schema, len(sources))
	for url := range sources {
		s, err := c.Compile(url)
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", url, err)
			return
		}
		schemas[url] = s
	}
}

// validateDocument checks a YAML document against the named schema. The
// document is round-tripped through JSON so the validator sees plain JSON
// values.
func validateDocument(schemaURL string, raw []byte) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	return schemas[schemaURL].Validate(v)
}
