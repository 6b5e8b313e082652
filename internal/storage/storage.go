package storage

import "time"

// Interaction is one processed message together with the reply it
// produced. Rows are appended in arrival order and never mutated or
// deleted by the running bot.
type Interaction struct {
	Timestamp time.Time
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Intent    string
	Message   string
	Reply     string
}

// Statistics is derived from the full stored history on demand.
type Statistics struct {
	Total    int
	Today    int
	ByIntent map[string]int
}

// Log abstracts persistence of interactions.
// Implementations must be safe for concurrent use.
type Log interface {
	Append(Interaction) error
	Load() ([]Interaction, error)
	Statistics() (Statistics, error)
	Backup(dir string) (string, error)
}
