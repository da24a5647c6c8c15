package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// batchFile is the TOML layout of a listing batch:
//
//	caller = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
//
//	[[token]]
//	descriptor = "https://picsum.photos/200/300"
//	price = "0.1"
type batchFile struct {
	Caller string       `toml:"caller"`
	Tokens []tokenEntry `toml:"token"`
}

type tokenEntry struct {
	Descriptor string `toml:"descriptor"`
	Price      string `toml:"price"`
}

type listing struct {
	Descriptor string
	Price      decimal.Decimal
}

type batch struct {
	Caller   models.Address
	Listings []listing
}

// loadBatch reads and validates a listing batch file.
func loadBatch(path string) (*batch, error) {
	var raw batchFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load batch: unknown key %q", undecoded[0].String())
	}

	caller, err := models.ParseAddress(raw.Caller)
	if err != nil {
		return nil, fmt.Errorf("load batch: caller: %w", err)
	}
	if len(raw.Tokens) == 0 {
		return nil, errors.New("load batch: no [[token]] entries")
	}

	b := &batch{Caller: caller, Listings: make([]listing, 0, len(raw.Tokens))}
	for i, t := range raw.Tokens {
		descriptor := strings.TrimSpace(t.Descriptor)
		if descriptor == "" {
			return nil, fmt.Errorf("load batch: token %d: descriptor is required", i+1)
		}
		price, err := models.ParseAmount(t.Price)
		if err != nil {
			return nil, fmt.Errorf("load batch: token %d: price: %w", i+1, err)
		}
		b.Listings = append(b.Listings, listing{Descriptor: descriptor, Price: price})
	}
	return b, nil
}
