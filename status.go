package dailytasks

import "fmt"

// Status is the sync status shown to the user. It is never persisted.
type Status int

const (
	Idle    Status = iota // Nothing to report.
	Syncing               // A pull or push is in flight.
	Synced                // The last remote operation succeeded and nothing is pending.
	Failed                // The last remote operation failed.
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Label is the short indicator shown next to the list; it's empty when there's nothing to report.
func (s Status) Label() string {
	switch s {
	case Syncing:
		return "Syncing…"
	case Synced:
		return "✓ Synced"
	case Failed:
		return "✗ Sync failed"
	default:
		return ""
	}
}
