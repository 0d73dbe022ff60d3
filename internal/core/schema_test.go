package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveColumns(t *testing.T) {
	cols, err := ResolveColumns([]string{"\ufeffamount", "Notes", " pet ", "DATE", "Category"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols != (Columns{Date: 3, Pet: 2, Category: 4, Amount: 0, Width: 5}) {
		t.Fatalf("unexpected columns: %+v", cols)
	}

	_, err = ResolveColumns([]string{"Date", "Pet"})
	if err == nil || !strings.Contains(err.Error(), "Category, Amount") {
		t.Fatalf("expected missing Category, Amount, got %v", err)
	}
}

func TestColumnsTransactionRoundTrip(t *testing.T) {
	cols, _ := ResolveColumns(Header)
	tx, err := cols.Transaction([]string{"2022-02-14", "Rex", "Vet", "120.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Pet != "Rex" || tx.Category != "Vet" || tx.Date.Month() != 2 || tx.Amount.String() != "120.5" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	rec := tx.Record()
	if strings.Join(rec, ",") != "2022-02-14,Rex,Vet,120.5" {
		t.Fatalf("unexpected record: %v", rec)
	}

	if _, err := cols.Transaction([]string{"2022-02-14", "Rex", "Vet"}); err == nil {
		t.Fatalf("expected error for short record")
	}
	if _, err := cols.Transaction([]string{"nope", "Rex", "Vet", "1"}); err == nil || !strings.Contains(err.Error(), "date") {
		t.Fatalf("expected date error, got %v", err)
	}
}

func TestColumnsRecordFollowsHeader(t *testing.T) {
	tx := Transaction{Date: NewDate(2022, 2, 1), Pet: "Milo", Category: "Vet", Amount: decimal.NewFromInt(7)}

	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{name: "canonical", header: Header, want: "2022-02-01,Milo,Vet,7"},
		{name: "reordered", header: []string{"Date", "Category", "Pet", "Amount"}, want: "2022-02-01,Vet,Milo,7"},
		{name: "extra columns", header: []string{"Notes", "Amount", "Pet", "Date", "Category", "Receipt"}, want: ",7,Milo,2022-02-01,Vet,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := ResolveColumns(tt.header)
			if err != nil {
				t.Fatalf("ResolveColumns: %v", err)
			}
			rec := cols.Record(tx)
			if got := strings.Join(rec, ","); got != tt.want {
				t.Fatalf("Record() = %q, want %q", got, tt.want)
			}
			back, err := cols.Transaction(rec)
			if err != nil || back.Pet != "Milo" || back.Category != "Vet" {
				t.Fatalf("Transaction(Record()) = %+v, %v", back, err)
			}
		})
	}
}

func TestValidationFailureMessage(t *testing.T) {
	vf := NewMalformedBatch([]RowError{{Line: 2, Reason: "bad amount"}, {Line: 4, Reason: "bad date"}})
	want := "The expenses file has invalid rows: line 2: bad amount; line 4: bad date"
	if vf.Error() != want {
		t.Fatalf("got %q", vf.Error())
	}
	var err error = vf
	got, ok := AsValidationFailure(err)
	if !ok || got.Kind != MalformedBatch {
		t.Fatalf("AsValidationFailure failed: %v %v", got, ok)
	}
	if NewMissingName().Error() != "You must include pet's name" {
		t.Fatalf("unexpected missing name message")
	}
}
