package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"halalinvest/src/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Default returns the instruments the application starts with.
func Default() []model.Instrument {
	return []model.Instrument{
		{
			Symbol: "AAPL", Name: "Apple Inc.", Price: d("175.43"), ChangeAbsolute: d("2.15"), ChangePercent: d("1.24"),
			Category: model.CategoryHalalStocks, IsHalal: true, MarketCap: "$2.8T", Volume: "45.2M",
			Description: "Technology company specializing in consumer electronics",
		},
		{
			Symbol: "MSFT", Name: "Microsoft Corporation", Price: d("378.85"), ChangeAbsolute: d("-1.23"), ChangePercent: d("-0.32"),
			Category: model.CategoryHalalStocks, IsHalal: true, MarketCap: "$2.8T", Volume: "32.1M",
			Description: "Software and cloud computing services",
		},
		{
			Symbol: "GOOGL", Name: "Alphabet Inc.", Price: d("142.56"), ChangeAbsolute: d("3.42"), ChangePercent: d("2.46"),
			Category: model.CategoryHalalStocks, IsHalal: true, MarketCap: "$1.8T", Volume: "28.7M",
			Description: "Internet search and technology services",
		},
		{
			Symbol: "TSLA", Name: "Tesla Inc.", Price: d("248.42"), ChangeAbsolute: d("-5.67"), ChangePercent: d("-2.23"),
			Category: model.CategoryHalalStocks, IsHalal: true, MarketCap: "$789B", Volume: "67.3M",
			Description: "Electric vehicles and clean energy",
		},
		{
			Symbol: "SUKUK1", Name: "Islamic Development Bank Sukuk", Price: d("1000.00"), ChangeAbsolute: d("0.50"), ChangePercent: d("0.05"),
			Category: model.CategorySukuk, IsHalal: true, MarketCap: "$2.5B", Volume: "1.2M",
			Description: "Sharia-compliant bond issued by the Islamic Development Bank",
		},
		{
			Symbol: "GOLD", Name: "Gold Commodity", Price: d("2034.50"), ChangeAbsolute: d("12.30"), ChangePercent: d("0.61"),
			Category: model.CategoryCommodities, IsHalal: true, MarketCap: "$12.1T", Volume: "156K",
			Description: "Physical gold commodity investment",
		},
	}
}

type fileInstrument struct {
	Symbol        string `yaml:"symbol"`
	Name          string `yaml:"name"`
	Price         string `yaml:"price"`
	Change        string `yaml:"change"`
	ChangePercent string `yaml:"change_percent"`
	Category      string `yaml:"category"`
	IsHalal       *bool  `yaml:"is_halal"`
	MarketCap     string `yaml:"market_cap"`
	Volume        string `yaml:"volume"`
	Description   string `yaml:"description"`
}

type fileCatalog struct {
	Instruments []fileInstrument `yaml:"instruments"`
}

// LoadFile reads a YAML seed file of the form
//
//	instruments:
//	  - symbol: AAPL
//	    name: Apple Inc.
//	    price: "175.43"
//	    category: halal-stocks
func LoadFile(path string) ([]model.Instrument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) ([]model.Instrument, error) {
	var doc fileCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Instruments) == 0 {
		return nil, fmt.Errorf("catalog has no instruments")
	}

	seen := make(map[string]struct{}, len(doc.Instruments))
	out := make([]model.Instrument, 0, len(doc.Instruments))
	for i, fi := range doc.Instruments {
		if fi.Symbol == "" {
			return nil, fmt.Errorf("instrument %d: symbol is empty", i)
		}
		if _, dup := seen[fi.Symbol]; dup {
			return nil, fmt.Errorf("instrument %s: duplicate symbol", fi.Symbol)
		}
		seen[fi.Symbol] = struct{}{}

		price, err := decimal.NewFromString(fi.Price)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("instrument %s: price must be a positive number", fi.Symbol)
		}
		category := model.Category(fi.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("instrument %s: unknown category %q", fi.Symbol, fi.Category)
		}

		inst := model.Instrument{
			Symbol:      fi.Symbol,
			Name:        fi.Name,
			Price:       price,
			Category:    category,
			IsHalal:     fi.IsHalal == nil || *fi.IsHalal,
			MarketCap:   fi.MarketCap,
			Volume:      fi.Volume,
			Description: fi.Description,
		}
		if fi.Change != "" {
			if inst.ChangeAbsolute, err = decimal.NewFromString(fi.Change); err != nil {
				return nil, fmt.Errorf("instrument %s: invalid change: %w", fi.Symbol, err)
			}
		}
		if fi.ChangePercent != "" {
			if inst.ChangePercent, err = decimal.NewFromString(fi.ChangePercent); err != nil {
				return nil, fmt.Errorf("instrument %s: invalid change_percent: %w", fi.Symbol, err)
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

// Load returns the catalog configured by CATALOG_FILE, falling back to
// the built-in instruments when no file is set.
func Load() (*Catalog, error) {
	config := GetConfig()
	if config.File == "" {
		return New(Default()), nil
	}
	instruments, err := LoadFile(config.File)
	if err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{
		"component": "catalog",
		"file":      config.File,
		"count":     len(instruments),
	}).Info("Loaded instrument catalog from file")
	return New(instruments), nil
}
