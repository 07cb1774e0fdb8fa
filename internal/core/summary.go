package core

// EntrySummary is one row of the per-day calendar listing.
// Unresolvable references are rendered with UnknownLabel.
type EntrySummary struct {
	EntryID     int64
	UserID      int64
	User        string
	PartNumber  string
	UnitName    string
	Designation string
	Task        string
	Amount      float64
	Hours       string // "<amount> [h]"
	DateOfWork  Date
}

// UnknownLabel replaces the label of a reference that no longer resolves.
const UnknownLabel = "(unknown)"

// ProjectCost is the hours, cost and budget consumption of one project.
type ProjectCost struct {
	ProjectID   int64
	Designation string
	Hours       float64
	Cost        float64 // rounded to 3 decimals
	Ratio       float64 // cost / budget * 100, rounded to 3 decimals
	// HourRatio is hours / hour budget * 100 when the project has an hour budget.
	HourRatio *float64
}

// OrganizationTotals aggregates every project and every worked-hours record.
type OrganizationTotals struct {
	Budget       float64
	Cost         float64 // rounded to 3 decimals
	Revenue      float64 // rounded to 3 decimals
	RatioPercent float64 // revenue / budget * 100, rounded to 2 decimals
}
