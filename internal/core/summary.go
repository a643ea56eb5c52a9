package core

// CategoryAmount is the signed total of a category: income adds, expenses subtract.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
}

// DailyTotal is the sum of one direction's entries on a single date.
type DailyTotal struct {
	Date      Date
	Direction Direction
	Total     Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Expense    Money
	Income     Money
	Balance    Money
	ByCategory []CategoryAmount
}
