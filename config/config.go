// Package config holds the JSON configuration of decode-tree generation and
// decoding.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/vdt/bitvec"
)

// Config holds generator and decoder settings.
type Config struct {
	// Strategy names the tree generator. Default: "irregular".
	Strategy string `json:"strategy"`

	// MaxFanoutBits bounds the number of bits a multi-way node may test,
	// so a node has at most 2^MaxFanoutBits cases. Default: 8.
	MaxFanoutBits int `json:"max_fanout_bits"`

	// MaxNodes aborts generation when the tree grows beyond this many
	// nodes. Default: 65536.
	MaxNodes int `json:"max_nodes"`

	// MaxDepth aborts generation when a path grows beyond this depth.
	// Default: 256.
	MaxDepth int `json:"max_depth"`

	// Verify decodes a witness of every entry after generation.
	Verify bool `json:"verify"`

	// ByteOrder is the default byte order of raw instruction words,
	// "big" or "little". Default: "little".
	ByteOrder string `json:"byte_order"`

	// CacheSets and CacheWays size the decode cache. Default: 64 sets, 4 ways.
	CacheSets int `json:"cache_sets"`
	CacheWays int `json:"cache_ways"`
}

// maxFanoutLimit caps MaxFanoutBits; a multi-way node enumerates every
// combination of its bits.
const maxFanoutLimit = 16

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Strategy:      "irregular",
		MaxFanoutBits: 8,
		MaxNodes:      1 << 16,
		MaxDepth:      256,
		Verify:        false,
		ByteOrder:     "little",
		CacheSets:     64,
		CacheWays:     4,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Strategy == "" {
		return fmt.Errorf("strategy must not be empty")
	}
	if c.MaxFanoutBits < 1 || c.MaxFanoutBits > maxFanoutLimit {
		return fmt.Errorf("max_fanout_bits must be in 1..%d", maxFanoutLimit)
	}
	if c.MaxNodes <= 0 {
		return fmt.Errorf("max_nodes must be > 0")
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be > 0")
	}
	if _, err := bitvec.ParseByteOrder(c.ByteOrder); err != nil {
		return fmt.Errorf("byte_order: %w", err)
	}
	if c.CacheSets <= 0 || c.CacheWays <= 0 {
		return fmt.Errorf("cache_sets and cache_ways must be > 0")
	}
	return nil
}

// Order returns the parsed byte order. Call Validate first.
func (c *Config) Order() bitvec.ByteOrder {
	order, _ := bitvec.ParseByteOrder(c.ByteOrder)
	return order
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
