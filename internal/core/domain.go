package core

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// DateLayout is the canonical on-disk date format.
const DateLayout = "2006-01-02"

type (
	Gender string

	Date struct {
		time.Time
	}

	// Transaction is one expense row of the log.
	Transaction struct {
		Date     Date
		Pet      string
		Category string
		Amount   decimal.Decimal
	}

	// Profile holds the metadata of one pet.
	Profile struct {
		Name     string
		Gender   Gender
		Birthday Date
	}

	// TransactionLog is append-only: rows are never edited or removed.
	TransactionLog []Transaction

	// ProfileRegistry maps a pet name to its profile.
	ProfileRegistry map[string]Profile
)

var (
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmbiguousAmount = errors.New("ambiguous amount: use a dot for decimals and no thousands separator")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyPet        = errors.New("empty pet name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidGender   = errors.New("gender must be Male or Female")
)

var dateLayouts = []string{DateLayout, "01/02/2006", "2006/01/02", "1/2/2006"}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ISO dates as well as the US and slash formats spreadsheets export.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrZeroDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	// Datetime values ("2022-01-05 00:00:00") as written by pandas.
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// Month returns the calendar month, 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String formats the date with DateLayout.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// ParseGender matches Male or Female case-insensitively.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", ErrInvalidGender
}

func (g Gender) Validate() error {
	if g != Male && g != Female {
		return ErrInvalidGender
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Pet) == "" {
		return ErrEmptyPet
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyPet
	}
	return p.Gender.Validate()
}

// Clone returns a copy that shares no backing array with l.
func (l TransactionLog) Clone() TransactionLog {
	out := make(TransactionLog, len(l))
	copy(out, l)
	return out
}

// Clone returns a shallow copy of the registry.
func (r ProfileRegistry) Clone() ProfileRegistry {
	out := make(ProfileRegistry, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Names returns the registered pet names in lexical order.
func (r ProfileRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
