package blockload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm/blockload/lib/viewport"
)

// DefaultFragmentSelector matches fragment placeholders.
const DefaultFragmentSelector = ".fragment"

// Config is the engine's configuration surface. It is read-only once an
// engine has been built from it and may be shared between engines.
type Config struct {
	// LazyMargin grows the viewport before lazy blocks are tested for
	// proximity. CSS margin shorthand in pixels.
	LazyMargin string `yaml:"lazyMargin"`

	// CanonicalDomain is the authoring origin rewritten to the runtime
	// origin in anchor hrefs, e.g. "https://www.example.com".
	CanonicalDomain string `yaml:"canonicalDomain"`

	// FragmentSelector identifies fragment placeholders.
	FragmentSelector string `yaml:"fragmentSelector"`

	// Blocks maps selectors to descriptors. Mapping order is scan order.
	Blocks Blocks `yaml:"blocks"`

	// Templates are applied once per page by ApplyTemplate.
	Templates map[string]TemplateConfig `yaml:"templates"`
}

// BlockConfig describes one registry entry.
type BlockConfig struct {
	Selector string `yaml:"-"`
	Location string `yaml:"location"`
	Styles   string `yaml:"styles"`
	Scripts  string `yaml:"scripts"`
	Lazy     bool   `yaml:"lazy"`
}

// Blocks is an ordered list of block entries. In YAML it is written as a
// mapping from selector to entry.
type Blocks []BlockConfig

// UnmarshalYAML decodes the selector mapping, keeping document order.
func (b *Blocks) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("blocks: line %d: expected a mapping of selectors", node.Line)
	}
	out := make(Blocks, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var bc BlockConfig
		if err := val.Decode(&bc); err != nil {
			return fmt.Errorf("blocks: %q: %w", key.Value, err)
		}
		bc.Selector = key.Value
		out = append(out, bc)
	}
	*b = out
	return nil
}

// MarshalYAML encodes the blocks as a selector mapping.
func (b Blocks) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, bc := range b {
		var val yaml.Node
		if err := val.Encode(bc); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: bc.Selector},
			&val,
		)
	}
	return node, nil
}

// TemplateConfig selects page-level styling by the "template" metadata.
type TemplateConfig struct {
	Location string `yaml:"location"`
	Styles   string `yaml:"styles"`
	Class    string `yaml:"class"`
}

// DefaultConfig returns a configuration with no blocks.
func DefaultConfig() *Config {
	return &Config{
		LazyMargin:       viewport.DefaultMargin,
		FragmentSelector: DefaultFragmentSelector,
	}
}

// ParseConfig decodes YAML configuration and fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

func (c *Config) applyDefaults() {
	if c.LazyMargin == "" {
		c.LazyMargin = viewport.DefaultMargin
	}
	if c.FragmentSelector == "" {
		c.FragmentSelector = DefaultFragmentSelector
	}
}

// Validate checks the margin and block selectors.
func (c *Config) Validate() error {
	if _, err := c.Margin(); err != nil {
		return err
	}
	_, err := c.Registry()
	return err
}

// Margin parses LazyMargin, falling back to the default when unset.
func (c *Config) Margin() (viewport.Margin, error) {
	if c.LazyMargin == "" {
		return viewport.ParseMargin(viewport.DefaultMargin)
	}
	return viewport.ParseMargin(c.LazyMargin)
}

// Registry builds a fresh registry holding the configured blocks. Each
// page needs its own registry since descriptors carry load state.
func (c *Config) Registry() (*Registry, error) {
	reg := NewRegistry()
	for _, bc := range c.Blocks {
		err := reg.Add(bc.Selector, Descriptor{
			Location:   bc.Location,
			Stylesheet: bc.Styles,
			Script:     bc.Scripts,
			Lazy:       bc.Lazy,
		})
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}
