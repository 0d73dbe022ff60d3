package google

import (
	"fmt"
	"strings"

	"petspese/internal/core"
)

var petsHeader = []string{"Name", "Gender", "Birthday"}

// decodeLog converts the expenses tab into transactions. The first row is the
// header; rows that do not decode are reported with their sheet row number.
// The returned columns are the layout new rows must follow.
func decodeLog(values [][]interface{}) (core.TransactionLog, []core.RowError, core.Columns, error) {
	if len(values) == 0 {
		return nil, nil, core.CanonicalColumns, nil
	}
	cols, err := core.ResolveColumns(toStrings(values[0]))
	if err != nil {
		return nil, nil, core.Columns{}, err
	}
	var (
		log     core.TransactionLog
		skipped []core.RowError
	)
	for i := 1; i < len(values); i++ {
		rec := toStrings(values[i])
		if core.IsBlank(rec) {
			continue
		}
		t, err := cols.Transaction(rec)
		if err != nil {
			skipped = append(skipped, core.RowError{Line: i + 1, Reason: err.Error()})
			continue
		}
		log = append(log, t)
	}
	return log, skipped, cols, nil
}

// decodeRegistry converts the pets tab (Name, Gender, Birthday) into profiles.
func decodeRegistry(values [][]interface{}) (core.ProfileRegistry, error) {
	reg := core.ProfileRegistry{}
	if len(values) == 0 {
		return reg, nil
	}
	headers := toStrings(values[0])
	colName := indexOf(headers, "Name")
	colGender := indexOf(headers, "Gender")
	colBirthday := indexOf(headers, "Birthday")
	if colName == -1 {
		return nil, fmt.Errorf("unexpected pets header: missing Name; got headers=%v", headers)
	}
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, colName)
		if name == "" {
			continue
		}
		p := core.Profile{Name: name}
		if g, err := core.ParseGender(safeGet(row, colGender)); err == nil {
			p.Gender = g
		}
		if b := safeGet(row, colBirthday); b != "" {
			d, err := core.ParseDate(b)
			if err != nil {
				return nil, fmt.Errorf("row %d: birthday %q: %w", i+1, b, err)
			}
			p.Birthday = d
		}
		reg[name] = p
	}
	return reg, nil
}

func headerRow() []interface{} {
	return toRow(core.Header)
}

func encodeLog(cols core.Columns, log core.TransactionLog) [][]interface{} {
	out := make([][]interface{}, 0, len(log))
	for _, t := range log {
		out = append(out, toRow(cols.Record(t)))
	}
	return out
}

// encodeRegistry renders the pets tab sorted by name, header first.
func encodeRegistry(reg core.ProfileRegistry) [][]interface{} {
	out := [][]interface{}{toRow(petsHeader)}
	for _, name := range reg.Names() {
		p := reg[name]
		out = append(out, []interface{}{name, string(p.Gender), p.Birthday.String()})
	}
	return out
}

func toRow(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
