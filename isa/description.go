// Package isa reads instruction set descriptions and lowers them to decode
// entries.
//
// A description lists formats, which split an instruction word into named
// bit fields, and instructions, which fix some fields of a format to
// constants. Exclusion conditions are written as the encodings an
// instruction gives up:
//
//	instructions:
//	  - name: I1
//	    format: Format
//	    encoding: {a: 0, b: 0}
//	    exclude:
//	      - when: {c: 0b11}
//	      - when: {c: 0b00}
//	        unless: [{e: 0b00}, {e: 0b11}]
//
// Field bit numbers count from the least significant bit of the natural
// (big-endian) instruction word.
package isa

import (
	"fmt"
	"math/big"
	"os"

	"go.yaml.in/yaml/v3"
)

// Description is the YAML form of an instruction set.
type Description struct {
	Name         string            `yaml:"name"`
	ByteOrder    string            `yaml:"byteOrder"`
	Formats      []FormatDesc      `yaml:"formats"`
	Instructions []InstructionDesc `yaml:"instructions"`
}

// FormatDesc describes an instruction format.
type FormatDesc struct {
	Name     string       `yaml:"name"`
	Width    int          `yaml:"width"`
	Fields   []FieldDesc  `yaml:"fields"`
	Accesses []AccessDesc `yaml:"accesses"`
}

// FieldDesc names the bits of a field, for example "31..25" or "31,7,30..25".
type FieldDesc struct {
	Name string `yaml:"name"`
	Bits string `yaml:"bits"`
}

// AccessDesc derives an operand from a field: the field value is optionally
// sign-extended and then shifted left.
type AccessDesc struct {
	Name   string `yaml:"name"`
	Field  string `yaml:"field"`
	Shift  uint   `yaml:"shift"`
	Signed bool   `yaml:"signed"`
}

// InstructionDesc describes one instruction.
type InstructionDesc struct {
	Name     string              `yaml:"name"`
	Format   string              `yaml:"format"`
	Encoding map[string]Constant `yaml:"encoding"`
	Exclude  []ExclusionDesc     `yaml:"exclude"`
}

// ExclusionDesc gives up the encodings matching When unless one of Unless
// matches too.
type ExclusionDesc struct {
	When   map[string]Constant   `yaml:"when"`
	Unless []map[string]Constant `yaml:"unless"`
}

// Constant is an arbitrary-precision field value. YAML scalars are read with
// Go integer syntax, so 0b, 0o and 0x prefixes and underscores are allowed.
type Constant struct {
	big.Int
}

// NewConstant creates a constant.
func NewConstant(v int64) Constant {
	var c Constant
	c.SetInt64(v)
	return c
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Constant) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: constant must be a scalar", node.Line)
	}
	if _, ok := c.SetString(node.Value, 0); !ok {
		return fmt.Errorf("line %d: invalid constant %q", node.Line, node.Value)
	}
	if c.Sign() < 0 {
		return fmt.Errorf("line %d: negative constant %q", node.Line, node.Value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Constant) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%x", &c.Int), nil
}

// Load reads and compiles a description file.
func Load(path string) (*ISA, error) {
	desc, err := LoadDescription(path)
	if err != nil {
		return nil, err
	}
	return Compile(desc)
}

// Parse compiles a YAML description.
func Parse(data []byte) (*ISA, error) {
	desc, err := ParseDescription(data)
	if err != nil {
		return nil, err
	}
	return Compile(desc)
}

// LoadDescription reads a description file without compiling it.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ISA description: %w", err)
	}
	return ParseDescription(data)
}

// ParseDescription decodes a YAML description without compiling it.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse ISA description: %w", err)
	}
	return &desc, nil
}

// Save writes a description as YAML.
func Save(desc *Description, path string) error {
	data, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("failed to marshal ISA description: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ISA description: %w", err)
	}
	return nil
}
