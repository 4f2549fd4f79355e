package constants

// ProcessingStatus is the canonical status for rows in extraction_results.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "PENDING"    // known, not yet picked up
	StatusProcessing ProcessingStatus = "PROCESSING" // worker picked it up
	StatusCompleted  ProcessingStatus = "COMPLETED"  // terminal; never re-extracted
	StatusFailed     ProcessingStatus = "FAILED"     // terminal for this pass; explicit enqueue retries
)

// ProcessingStatuses lists every stored value, in state-machine order.
var ProcessingStatuses = []ProcessingStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

func (s ProcessingStatus) String() string { return string(s) }

// IsTerminal reports whether the status ends a processing pass.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseProcessingStatus maps a stored value back to a ProcessingStatus.
func ParseProcessingStatus(v string) (ProcessingStatus, bool) {
	for _, s := range ProcessingStatuses {
		if string(s) == v {
			return s, true
		}
	}
	return "", false
}
