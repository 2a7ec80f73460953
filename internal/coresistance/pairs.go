package coresistance

// Package coresistance loads precomputed antibiotic co-resistance statistics and
// derives the rows shown on the top-pairs chart.
// Phi values are computed upstream; nothing here recomputes or re-sorts them.

// Pair is one row of the co-resistance CSV.
type Pair struct {
	Antibiotic1 string
	Antibiotic2 string
	Phi         float64 // association strength, conventionally in [-1, 1]
}

// DisplayRow is a Pair with the label drawn on the chart's y axis.
type DisplayRow struct {
	Pair
	Label string
}

// LabelSeparator joins the two antibiotic names in a display label.
const LabelSeparator = " - "

// Label returns the literal "<a> - <b>" concatenation, with no trimming or case change.
func Label(antibiotic1, antibiotic2 string) string {
	return antibiotic1 + LabelSeparator + antibiotic2
}

// Top returns display rows for the first n pairs in input order.
// Fewer than n pairs is not an error: all of them are returned.
func Top(pairs []Pair, n int) []DisplayRow {
	if n < 0 {
		n = 0
	}
	if n > len(pairs) {
		n = len(pairs)
	}

	rows := make([]DisplayRow, 0, n)
	for _, p := range pairs[:n] {
		rows = append(rows, DisplayRow{
			Pair:  p,
			Label: Label(p.Antibiotic1, p.Antibiotic2),
		})
	}
	return rows
}

// OrderViolation marks a row whose Phi is larger than the row above it.
type OrderViolation struct {
	Index   int // row that breaks the order
	Phi     float64
	PrevPhi float64
}

// CheckOrdering reports every place where Phi increases from one row to the next.
// The chart assumes rows arrive strongest first; a violation means the upstream
// ordering drifted and the "strongest" labels may be wrong.
func CheckOrdering(rows []DisplayRow) []OrderViolation {
	var violations []OrderViolation
	for i := 1; i < len(rows); i++ {
		if rows[i].Phi > rows[i-1].Phi {
			violations = append(violations, OrderViolation{
				Index:   i,
				Phi:     rows[i].Phi,
				PrevPhi: rows[i-1].Phi,
			})
		}
	}
	return violations
}
