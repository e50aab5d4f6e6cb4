package domain

import "time"

// Snapshot is an immutable stored fitted model addressed by ID.
// ParentID names the snapshot it was reduced from and is empty for a fresh fit;
// State is the oracle-encoded model.
type Snapshot struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parent_id,omitempty"`
	DocumentIDs  []string  `json:"document_ids"`
	MinTopicSize int       `json:"min_topic_size"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	State        []byte    `json:"state"`
}
