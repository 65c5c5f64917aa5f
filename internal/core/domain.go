package core

import (
	"errors"
	"strings"
	"time"
)

// DatetimeLayout is the wall-clock format of Transaction.Datetime.
const DatetimeLayout = "2006-01-02 15:04:05"

// IncomeKey is the config key holding the monthly income.
const IncomeKey = "salaire"

// Row type tags of the combined fixed+variable view.
const (
	KindFixed    = "Fixe"
	KindVariable = "Variable"
)

type (
	// FixedExpense is a recurring category whose spent amount is edited by hand.
	FixedExpense struct {
		Category string
		Budget   Money
		Spent    Money
	}

	// VariableExpense is a category whose spent amount is derived from the ledger.
	VariableExpense struct {
		Category string
		Budget   Money
		Spent    Money
	}

	// Transaction is one entry of the append-only ledger.
	Transaction struct {
		Datetime string
		Category string
		Amount   Money
		Note     string
	}

	// ConfigEntry is one key/value row of the config table.
	ConfigEntry struct {
		Key   string
		Value Money
	}

	// State is everything loaded for one invocation. Mutations return a new State.
	State struct {
		Fixed        []FixedExpense
		Variable     []VariableExpense
		Transactions []Transaction
		Config       []ConfigEntry
	}

	// GlobalRow is one line of the editable fixed+variable table.
	GlobalRow struct {
		Kind     string
		Category string
		Budget   Money
		Spent    Money
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrEmptyCategory     = errors.New("empty category")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalidInput      = errors.New("invalid input")
)

// NewTransaction stamps a transaction with the given wall-clock time.
func NewTransaction(at time.Time, category string, amount Money, note string) Transaction {
	return Transaction{
		Datetime: at.Format(DatetimeLayout),
		Category: strings.TrimSpace(category),
		Amount:   amount,
		Note:     note,
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// Time parses Datetime; the zero time is returned for malformed values.
func (t Transaction) Time() time.Time {
	ts, err := time.Parse(DatetimeLayout, t.Datetime)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Clone returns a State whose slices can be modified without touching s.
func (s State) Clone() State {
	return State{
		Fixed:        append([]FixedExpense(nil), s.Fixed...),
		Variable:     append([]VariableExpense(nil), s.Variable...),
		Transactions: append([]Transaction(nil), s.Transactions...),
		Config:       append([]ConfigEntry(nil), s.Config...),
	}
}

// HasVariable reports whether a variable category with this exact name exists.
func (s State) HasVariable(name string) bool {
	for _, v := range s.Variable {
		if v.Category == name {
			return true
		}
	}
	return false
}

// Income returns the configured monthly income, zero when unset.
func (s State) Income() Money {
	for _, c := range s.Config {
		if c.Key == IncomeKey {
			return c.Value
		}
	}
	return Money{}
}

// WithIncome returns a copy of s with the income set, adding the key if missing.
func (s State) WithIncome(v Money) State {
	out := s.Clone()
	for i := range out.Config {
		if out.Config[i].Key == IncomeKey {
			out.Config[i].Value = v
			return out
		}
	}
	out.Config = append(out.Config, ConfigEntry{Key: IncomeKey, Value: v})
	return out
}

// ValidateCategoryName rejects blank names and names already in use.
func ValidateCategoryName(name string, existing []string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyCategory
	}
	for _, e := range existing {
		if e == name {
			return ErrDuplicateCategory
		}
	}
	return nil
}

// VariableNames lists variable categories in table order.
func (s State) VariableNames() []string {
	out := make([]string, len(s.Variable))
	for i, v := range s.Variable {
		out[i] = v.Category
	}
	return out
}
