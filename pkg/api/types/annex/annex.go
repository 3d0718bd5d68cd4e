// Package annex carries the wire form of annotations shared by entity and
// act resources: tags, notes and extensions.
package annex

import (
	"bytes"

	"github.com/google/uuid"
)

type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (t Tag) Equal(o Tag) bool {
	return t == o
}

type Note struct {
	Key       uuid.UUID `json:"key,omitempty"`
	AuthorKey uuid.UUID `json:"authorKey"`
	Text      string    `json:"text"`
}

func (n Note) Equal(o Note) bool {
	return n.AuthorKey == o.AuthorKey && n.Text == o.Text
}

type Extension struct {
	Key     uuid.UUID `json:"key,omitempty"`
	TypeKey uuid.UUID `json:"typeKey"`
	Value   []byte    `json:"value"`
}

func (e Extension) Equal(o Extension) bool {
	return e.TypeKey == o.TypeKey && bytes.Equal(e.Value, o.Value)
}
