package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

type (
	seedFile struct {
		Prices []seedPrice `yaml:"prices"`
	}

	priceKey struct {
		typ     core.ItemType
		species string
		year    int
	}

	seedPrice struct {
		Type      string          `yaml:"type"`
		Species   string          `yaml:"species"`
		Year      int             `yaml:"year"`
		BuyPrice  decimal.Decimal `yaml:"buyPrice"`
		SellPrice decimal.Decimal `yaml:"sellPrice"`
	}
)

// NewFromFile returns a store seeded with the price references of a YAML
// file. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	if err := SeedPrices(context.Background(), s, path); err != nil {
		return nil, err
	}
	return s, nil
}

// SeedPrices writes the prices of the YAML file at path into ps. Entries
// whose (type, species, year) key already exists are left untouched so
// edits made through the API survive a restart.
func SeedPrices(ctx context.Context, ps store.PriceStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read price seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse price seed: %w", err)
	}
	existing, err := ps.ListPrices(ctx, store.PriceFilter{})
	if err != nil {
		return fmt.Errorf("list existing prices: %w", err)
	}
	seen := make(map[priceKey]bool, len(existing))
	for _, p := range existing {
		seen[priceKey{p.Type, p.Species, p.Year}] = true
	}

	now := time.Now().UTC()
	for i, sp := range f.Prices {
		in := core.NewPrice{
			Type:      sp.Type,
			Species:   sp.Species,
			Year:      sp.Year,
			BuyPrice:  sp.BuyPrice,
			SellPrice: sp.SellPrice,
		}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("price seed entry %d: %w", i, err)
		}
		key := priceKey{core.ItemType(in.Type), in.Species, in.Year}
		if seen[key] {
			continue
		}
		seen[key] = true
		_, err := ps.UpsertPrice(ctx, core.PriceReference{
			ID:        uuid.New().String(),
			Type:      core.ItemType(in.Type),
			Species:   in.Species,
			Year:      in.Year,
			BuyPrice:  in.BuyPrice,
			SellPrice: in.SellPrice,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("store price seed entry %d: %w", i, err)
		}
	}
	return nil
}
