package mode

// Mode is the ordering a search runs in. It is part of every pagination key.
type Mode string

// Search mode constants.
const (
	// Relevance orders by score, then popularity and recency.
	Relevance Mode = "relevance"
	// Recency is filter-only retrieval, newest first.
	Recency Mode = "recency"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Relevance || m == Recency
}

// Byte returns the compact wire form used in cursors.
func (m Mode) Byte() byte {
	if m == Recency {
		return 2
	}
	return 1
}

// FromByte decodes the compact wire form. ok is false for unknown values.
func FromByte(b byte) (Mode, bool) {
	switch b {
	case 1:
		return Relevance, true
	case 2:
		return Recency, true
	}
	return "", false
}
