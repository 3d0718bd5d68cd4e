// Package admin carries the wire form of the operational endpoints:
// health, replica copy and sequence auditing.
package admin

import (
	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/slices"
)

type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schemaVersion"`
}

// CopyRequest names the records to replicate into the attached replica
// store.
type CopyRequest struct {
	// Kind is "entity" or "act".
	Kind string      `json:"kind"`
	Keys []uuid.UUID `json:"keys"`
}

type CopyResponse struct {
	Copied int `json:"copied"`
}

type SequenceStatus struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func ComposeSequences(statuses []persistence.SequenceStatus) []SequenceStatus {
	return slices.Map(statuses, func(s persistence.SequenceStatus) SequenceStatus {
		return SequenceStatus{Name: s.Name, Value: s.Value}
	})
}
