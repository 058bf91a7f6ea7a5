package entity

// CaptureHistoryEntry is one slot of the relay capture history.
type CaptureHistoryEntry struct {
	Seq    uint64     `json:"seq"`
	Schema FormSchema `json:"schema"`
}
