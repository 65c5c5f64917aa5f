package store

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/table"
)

//go:embed seed.toml
var defaultSeed string

// SeedFile is looked up in the data directory to override the embedded seed.
const SeedFile = "seed.toml"

// Seed is the content written for tables absent from storage.
type Seed struct {
	Income   float64        `toml:"income"`
	Fixed    []SeedCategory `toml:"fixed"`
	Variable []SeedCategory `toml:"variable"`
}

// SeedCategory is one seeded budget line.
type SeedCategory struct {
	Category string  `toml:"category"`
	Budget   float64 `toml:"budget"`
}

// DefaultSeed returns the embedded seed.
func DefaultSeed() Seed {
	s, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return s
}

// ParseSeed decodes a TOML seed document and rejects unknown keys.
func ParseSeed(doc string) (Seed, error) {
	var s Seed
	md, err := toml.Decode(doc, &s)
	if err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Seed{}, fmt.Errorf("decode seed: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := s.validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// LoadSeed reads dir/seed.toml when present, the embedded seed otherwise.
func LoadSeed(dir string) (Seed, error) {
	if dir == "" {
		return DefaultSeed(), nil
	}
	b, err := os.ReadFile(filepath.Join(dir, SeedFile))
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSeed(), nil
	}
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(string(b))
}

func (s Seed) validate() error {
	if s.Income < 0 {
		return fmt.Errorf("seed income: %w", core.ErrNegativeAmount)
	}
	for kind, cats := range map[string][]SeedCategory{"fixed": s.Fixed, "variable": s.Variable} {
		var names []string
		for _, c := range cats {
			if err := core.ValidateCategoryName(c.Category, names); err != nil {
				return fmt.Errorf("seed %s %q: %w", kind, c.Category, err)
			}
			if c.Budget < 0 {
				return fmt.Errorf("seed %s %q: %w", kind, c.Category, core.ErrNegativeAmount)
			}
			names = append(names, strings.TrimSpace(c.Category))
		}
	}
	return nil
}

func fromFloat(f float64) core.Money {
	return core.Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

// State returns the seeded tables as typed rows.
func (s Seed) State() core.State {
	st := core.State{Transactions: []core.Transaction{}}
	for _, c := range s.Fixed {
		st.Fixed = append(st.Fixed, core.FixedExpense{Category: c.Category, Budget: fromFloat(c.Budget)})
	}
	for _, c := range s.Variable {
		st.Variable = append(st.Variable, core.VariableExpense{Category: c.Category, Budget: fromFloat(c.Budget)})
	}
	st.Config = []core.ConfigEntry{{Key: core.IncomeKey, Value: fromFloat(s.Income)}}
	return st
}

// Tables encodes the seeded state, keyed by table name.
func (s Seed) Tables() map[string]table.Table {
	st := s.State()
	return map[string]table.Table{
		TableFixed:        EncodeFixed(st.Fixed),
		TableVariable:     EncodeVariable(st.Variable),
		TableTransactions: EncodeTransactions(st.Transactions),
		TableConfig:       EncodeConfig(st.Config),
	}
}

// Schemas derives the default schema of every table from the seed.
func (s Seed) Schemas() map[string]table.Schema {
	out := make(map[string]table.Schema, len(TableNames))
	for name, t := range s.Tables() {
		out[name] = schemaFor(name, t)
	}
	return out
}
