package sheets

import (
	"context"
	"fmt"

	"expensetracker/internal/core"
)

// Header is the first row of the export sheet.
var Header = []string{"Date", "Title", "Amount", "Type", "Category", "Note"}

// LedgerRow is one exported ledger entry.
type LedgerRow struct {
	EntryID   int64
	Date      core.Date
	Title     string
	Amount    core.Money
	Direction core.Direction
	Category  string
	Note      string
}

func (r LedgerRow) Validate() error {
	if r.EntryID <= 0 {
		return fmt.Errorf("invalid entry id %d", r.EntryID)
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return r.Direction.Validate()
}

// Values renders the row in Header order. Amounts use a dot decimal separator
// so the sheet parses them as numbers.
func (r LedgerRow) Values() []any {
	return []any{
		r.Date.String(),
		r.Title,
		r.Amount.Decimal().StringFixed(2),
		string(r.Direction),
		r.Category,
		r.Note,
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendLedgerRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
