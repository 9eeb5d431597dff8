package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

func TestDecimalRatRoundTrip(t *testing.T) {
	tests := []string{"0", "12.5", "100.01", "0.000000001", "99999999.99"}

	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			want := decimal.RequireFromString(s)
			got, err := decimalFromRat(ratFromDecimal(want))
			if err != nil {
				t.Fatalf("decimalFromRat: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("round trip %s -> %s", want, got)
			}
		})
	}

	if d, err := decimalFromRat(nil); err != nil || !d.IsZero() {
		t.Errorf("nil rat = %s, %v; want 0", d, err)
	}
}

func TestTransactionRow_ToDomain(t *testing.T) {
	row := &TransactionRow{
		TransactionID:   "t1",
		UserID:          "u1",
		Description:     "Coffee",
		Category:        "food & drink",
		Amount:          big.NewRat(725, 100),
		TransactionDate: civil.Date{Year: 2024, Month: time.June, Day: 3},
		CreatedTS:       time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	}

	tx, err := row.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("Amount = %s, want 7.25", tx.Amount)
	}
	// legacy casing is preserved for the aggregator to normalize
	if tx.Category != domain.Category("food & drink") {
		t.Errorf("Category = %q", tx.Category)
	}

	back := transactionRowFromDomain(tx)
	if back.Amount.Cmp(row.Amount) != 0 || back.TransactionDate != row.TransactionDate {
		t.Errorf("unexpected row %+v", back)
	}
}

func TestUserRow_ToDomain(t *testing.T) {
	u := (&UserRow{UserID: "u1", Email: bigquery.NullString{StringVal: "a@b.c", Valid: true}}).toDomain()
	if u.ID != "u1" || u.Email != "a@b.c" || u.Name != "" {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestTableRef(t *testing.T) {
	if got := tableRef("proj", "finance", "goals"); got != "`proj.finance.goals`" {
		t.Errorf("tableRef = %s", got)
	}
}
