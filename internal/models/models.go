package models

// Target represents a product page to be monitored.
// URL is the unique key; Title and Memo are display metadata.
type Target struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Memo  string `json:"memo"`
}

// StockStatus is the classified availability of a product page.
type StockStatus int

const (
	NotYetChecked StockStatus = iota
	InStock
	OutOfStock
	CheckFailed
)

func (s StockStatus) String() string {
	switch s {
	case InStock:
		return "in_stock"
	case OutOfStock:
		return "out_of_stock"
	case CheckFailed:
		return "check_failed"
	default:
		return "not_yet_checked"
	}
}

// MarshalText renders the status with its string name in JSON payloads.
func (s StockStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TargetStatus is a target joined with its last observed status.
type TargetStatus struct {
	Target
	Status StockStatus `json:"status"`
}

// LogEntry is a single line of the activity log.
type LogEntry struct {
	Timestamp string `json:"timestamp"` // time of day, HH:MM:SS
	Message   string `json:"message"`
}
