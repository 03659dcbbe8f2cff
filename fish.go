// Package main - fish.go
//
// Fish catalog loaded from fish_config.json. Maps the fish type detected
// on the result screen to XP values and rarity for session statistics.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
)

// Rarity levels a fish can have.
type Rarity string

const (
	RarityCommon   Rarity = "COMMON"
	RarityRare     Rarity = "RARE"
	RarityMythical Rarity = "MYTHICAL"
)

// Fish describes one catchable entry of the catalog.
type Fish struct {
	ID       string `json:"id"`
	Image    string `json:"image"`
	Name     string `json:"name"`
	XP       int    `json:"xp"`
	Rarity   Rarity `json:"rarity"`
	Category string `json:"category,omitempty"`
}

func (f Fish) String() string {
	return fmt.Sprintf("%s (%s, XP: %d)", f.Name, f.Rarity, f.XP)
}

type fishConfig struct {
	Fishes []Fish `json:"fishes"`
}

// FishCatalog holds the loaded fish entries. Read-only after load.
type FishCatalog struct {
	fishes []Fish
}

// NewFishCatalog builds a catalog from entries directly, used by tests and
// as the empty fallback when no config file is present.
func NewFishCatalog(fishes []Fish) *FishCatalog {
	return &FishCatalog{fishes: fishes}
}

// LoadFishCatalog reads fish_config.json from the given path.
func LoadFishCatalog(path string) (*FishCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fish config: %w", err)
	}
	var cfg fishConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse fish config: %w", err)
	}
	return &FishCatalog{fishes: cfg.Fishes}, nil
}

// XPByType returns the XP value for a fish name or id, 0 when unknown.
func (c *FishCatalog) XPByType(fishType string) int {
	lower := strings.ToLower(fishType)
	for _, f := range c.fishes {
		if strings.ToLower(f.Name) == lower || strings.ToLower(f.ID) == lower {
			return f.XP
		}
	}
	return 0
}

// Exists reports whether a fish name or id is present in the catalog.
func (c *FishCatalog) Exists(fishType string) bool {
	lower := strings.ToLower(fishType)
	for _, f := range c.fishes {
		if strings.ToLower(f.Name) == lower || strings.ToLower(f.ID) == lower {
			return true
		}
	}
	return false
}

// ByRarity returns all entries of the given rarity.
func (c *FishCatalog) ByRarity(r Rarity) []Fish {
	var out []Fish
	for _, f := range c.fishes {
		if f.Rarity == r {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of catalog entries.
func (c *FishCatalog) Count() int {
	return len(c.fishes)
}
