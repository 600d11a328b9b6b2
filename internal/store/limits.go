package store

const (
	// DefaultListLimit applies when a caller passes a non-positive limit
	DefaultListLimit = 100
	// MaxListLimit caps list queries
	MaxListLimit = 1000
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
