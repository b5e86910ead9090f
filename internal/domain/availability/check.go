package availability

// Demand is the quantity of one item asked for by a request line.
type Demand struct {
	ItemID    string
	Requested int
}

// Stock is what the engine needs to know about one item.
type Stock struct {
	Total    int
	Bookings []Booking
}

// LineCheck is the availability verdict for one requested line.
type LineCheck struct {
	ItemID     string
	Requested  int
	Available  int
	Sufficient bool
	Conflicts  []Booking
}

// Check evaluates every demand against the stock of its item.
// Items missing from stock are treated as having no units.
// PRE: w is valid
// POST: one LineCheck per demand, in input order
func (e Engine) Check(w Window, demands []Demand, stock map[string]Stock, excludeRequestID string) []LineCheck {
	checks := make([]LineCheck, 0, len(demands))
	for _, d := range demands {
		s := stock[d.ItemID]
		r := e.Evaluate(s.Total, s.Bookings, w, excludeRequestID)
		checks = append(checks, LineCheck{
			ItemID:     d.ItemID,
			Requested:  d.Requested,
			Available:  r.Available,
			Sufficient: d.Requested <= r.Available,
			Conflicts:  r.Conflicts,
		})
	}
	return checks
}

// AllSufficient reports whether every line can be granted in full.
func AllSufficient(checks []LineCheck) bool {
	for _, c := range checks {
		if !c.Sufficient {
			return false
		}
	}
	return true
}

// SuggestPartial proposes min(Requested, Available) for every line.
func SuggestPartial(checks []LineCheck) map[string]int {
	out := make(map[string]int, len(checks))
	for _, c := range checks {
		q := c.Requested
		if c.Available < q {
			q = c.Available
		}
		out[c.ItemID] = q
	}
	return out
}
