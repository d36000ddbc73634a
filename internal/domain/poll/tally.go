package poll

// Tally is the per-option vote count over approved options, derived from the ledger.
type Tally struct {
	PerOption map[string]int64
	Total     int64
}

// Discrepancy is an option whose cached counter disagrees with the ledger.
type Discrepancy struct {
	OptionID string
	Cached   int64
	Ledger   int64
}

// NewTally builds a tally over the approved options of p from ledger counts
// keyed by option id. Counts for unknown or pending options are ignored.
func NewTally(p Poll, ledgerCounts map[string]int64) Tally {
	t := Tally{PerOption: make(map[string]int64)}
	for _, o := range p.ApprovedOptions() {
		n := ledgerCounts[o.ID]
		t.PerOption[o.ID] = n
		t.Total += n
	}
	return t
}

// Compare returns the options of p whose cached Votes differ from the ledger counts.
func Compare(p Poll, ledgerCounts map[string]int64) []Discrepancy {
	var out []Discrepancy
	for _, o := range p.Options {
		if n := ledgerCounts[o.ID]; n != o.Votes {
			out = append(out, Discrepancy{OptionID: o.ID, Cached: o.Votes, Ledger: n})
		}
	}
	return out
}

// Neutral markers for breakdowns that are withheld.
const (
	BreakdownAvailable        = "available"
	BreakdownInsufficientData = "insufficient-data"
)

// Statistics is the read model behind GET statistics.
type Statistics struct {
	PollID     string
	TotalVotes int64
	PerOption  map[string]int64
	Breakdown  string
	ByGender   map[string]map[string]int64
	ByUser     []UserChoice
}

// UserChoice is one authenticated voter's current choice.
type UserChoice struct {
	UserID      string
	DisplayName string
	OptionID    string
}
