package core

import (
	"fmt"
	"strings"
)

// Header is the column layout of the transaction log and the upload template.
var Header = []string{"Date", "Pet", "Category", "Amount"}

// Columns maps the log fields to their index in a record.
type Columns struct {
	Date, Pet, Category, Amount int
	// Width is the field count of the header the columns came from.
	Width int
}

// CanonicalColumns is the layout of Header.
var CanonicalColumns = Columns{Date: 0, Pet: 1, Category: 2, Amount: 3, Width: len(Header)}

// ResolveColumns locates the required columns in a header row. Matching ignores
// case and surrounding whitespace; extra columns are allowed and ignored.
func ResolveColumns(header []string) (Columns, error) {
	idx := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	var missing []string
	get := func(name string) int {
		i, ok := idx[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	cols := Columns{
		Date:     get("Date"),
		Pet:      get("Pet"),
		Category: get("Category"),
		Amount:   get("Amount"),
		Width:    len(header),
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("missing column(s) %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// Transaction decodes one record using the resolved columns.
func (c Columns) Transaction(rec []string) (Transaction, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	date, err := ParseDate(field(c.Date))
	if err != nil {
		return Transaction{}, fmt.Errorf("date %q: %w", field(c.Date), err)
	}
	amount, err := ParseAmount(field(c.Amount))
	if err != nil {
		return Transaction{}, fmt.Errorf("amount %q: %w", field(c.Amount), err)
	}
	t := Transaction{
		Date:     date,
		Pet:      field(c.Pet),
		Category: field(c.Category),
		Amount:   amount,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Record encodes t in Header order.
func (t Transaction) Record() []string {
	return CanonicalColumns.Record(t)
}

// Record encodes t in the layout of c, so a row appended below a reordered
// header lands in the right columns. Extra columns are left empty.
func (c Columns) Record(t Transaction) []string {
	width := c.Width
	for _, i := range []int{c.Date, c.Pet, c.Category, c.Amount} {
		if i >= width {
			width = i + 1
		}
	}
	rec := make([]string, width)
	rec[c.Date] = t.Date.String()
	rec[c.Pet] = t.Pet
	rec[c.Category] = t.Category
	rec[c.Amount] = t.Amount.String()
	return rec
}

// IsBlank reports whether every field of rec is empty.
func IsBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
