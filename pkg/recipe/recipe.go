package recipe

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RefPrefix marks a reference to another entry of the same recipe.
const RefPrefix = "@"

// NodeSpec declares one node.
type NodeSpec struct {
	// Parent is an absolute host path or a reference to another node.
	Parent string         `yaml:"parent" mapstructure:"parent"`
	Type   string         `yaml:"type" mapstructure:"type"`
	Name   string         `yaml:"name" mapstructure:"name"`
	Params map[string]any `yaml:"params" mapstructure:"params"`
	// Inputs holds references, or null / "~" for sparse slots.
	Inputs []any `yaml:"inputs" mapstructure:"inputs"`
}

// ChainSpec declares one chain. Elements are references or inline node specs.
type ChainSpec struct {
	Elements   []any          `yaml:"elements" mapstructure:"elements"`
	Inputs     []any          `yaml:"inputs" mapstructure:"inputs"`
	NamePrefix string         `yaml:"name_prefix" mapstructure:"name_prefix"`
	Params     map[string]any `yaml:"params" mapstructure:"params"`
}

// Recipe is a parsed, unresolved recipe document.
type Recipe struct {
	Nodes  map[string]NodeSpec  `yaml:"nodes" mapstructure:"nodes"`
	Chains map[string]ChainSpec `yaml:"chains" mapstructure:"chains"`
	// Targets lists the entries to materialize. Empty means every entry nothing else refers to.
	Targets []string `yaml:"targets" mapstructure:"targets"`
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML recipe. Unknown keys are rejected.
func Parse(data []byte) (*Recipe, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}

	var r Recipe
	if err := decode(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to decode recipe: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func (r *Recipe) validate() error {
	if len(r.Nodes) == 0 && len(r.Chains) == 0 {
		return fmt.Errorf("recipe declares no nodes or chains")
	}
	for name := range r.Chains {
		if _, dup := r.Nodes[name]; dup {
			return fmt.Errorf("%q is declared both as a node and as a chain", name)
		}
	}
	for name, n := range r.Nodes {
		if err := n.validate(); err != nil {
			return fmt.Errorf("node %q: %w", name, err)
		}
	}
	for _, t := range r.Targets {
		if !r.has(t) {
			return fmt.Errorf("unknown target %q", t)
		}
	}
	return nil
}

func (n NodeSpec) validate() error {
	if n.Type == "" {
		return fmt.Errorf("missing type")
	}
	if n.Parent == "" {
		return fmt.Errorf("missing parent")
	}
	if !isRef(n.Parent) && !strings.HasPrefix(n.Parent, "/") {
		return fmt.Errorf("parent %q must be an absolute path or a reference", n.Parent)
	}
	return nil
}

func (r *Recipe) has(name string) bool {
	_, node := r.Nodes[name]
	_, chain := r.Chains[name]
	return node || chain
}

func isRef(s string) bool {
	return strings.HasPrefix(s, RefPrefix) && len(s) > len(RefPrefix)
}
