package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2022-01-05", NewDate(2022, 1, 5), true},
		{"01/05/2022", NewDate(2022, 1, 5), true},
		{"1/5/2022", NewDate(2022, 1, 5), true},
		{"2022/12/31", NewDate(2022, 12, 31), true},
		{"2022-03-01 00:00:00", NewDate(2022, 3, 1), true},
		{"", Date{}, false},
		{"yesterday", Date{}, false},
		{"2022-13-01", Date{}, false},
	}
	for i, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("case %d %q: expected %v, got %v (err=%v)", i, tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("case %d %q: expected error", i, tc.in)
		}
	}
}

func TestParseGender(t *testing.T) {
	for _, in := range []string{"Male", "male", " MALE ", "m"} {
		if g, err := ParseGender(in); err != nil || g != Male {
			t.Fatalf("%q expected Male, got %q (err=%v)", in, g, err)
		}
	}
	if g, err := ParseGender("Female"); err != nil || g != Female {
		t.Fatalf("expected Female, got %q (err=%v)", g, err)
	}
	if _, err := ParseGender("cat"); err == nil {
		t.Fatalf("expected error for unknown gender")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:     NewDate(2022, 1, 5),
		Pet:      "Rex",
		Category: "Food",
		Amount:   decimal.NewFromInt(20),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	free := good
	free.Amount = decimal.Zero
	if err := free.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Pet: "Rex", Category: "Food", Amount: decimal.NewFromInt(1)},
		{Date: NewDate(2022, 1, 5), Pet: " ", Category: "Food", Amount: decimal.NewFromInt(1)},
		{Date: NewDate(2022, 1, 5), Pet: "Rex", Category: "", Amount: decimal.NewFromInt(1)},
		{Date: NewDate(2022, 1, 5), Pet: "Rex", Category: "Food", Amount: decimal.NewFromInt(-1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	log := TransactionLog{{Pet: "Rex"}}
	c := log.Clone()
	c[0].Pet = "Milo"
	if log[0].Pet != "Rex" {
		t.Fatalf("clone aliased the original log")
	}

	reg := ProfileRegistry{"Rex": {Name: "Rex", Gender: Male}}
	rc := reg.Clone()
	rc["Milo"] = Profile{Name: "Milo", Gender: Female}
	if len(reg) != 1 {
		t.Fatalf("clone aliased the original registry")
	}
	if names := rc.Names(); len(names) != 2 || names[0] != "Milo" || names[1] != "Rex" {
		t.Fatalf("unexpected names: %v", names)
	}
}
