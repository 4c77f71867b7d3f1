package types

// Table is a reservable physical unit with a seating capacity.
// Tables are seeded once and never modified afterwards.
type Table struct {
	ID    string `json:"id" mapstructure:"id" yaml:"id"`
	Seats int    `json:"seats" mapstructure:"seats" yaml:"seats"`
}

// Fits reports whether the table can seat a party of the given size.
func (t Table) Fits(guests int) bool {
	return t.Seats >= guests
}

// DefaultTables returns the seed set written on first run when no tables
// collection exists in the store.
func DefaultTables() []Table {
	return []Table{
		{ID: "T1", Seats: 2},
		{ID: "T2", Seats: 2},
		{ID: "T3", Seats: 4},
		{ID: "T4", Seats: 4},
		{ID: "T5", Seats: 6},
	}
}
