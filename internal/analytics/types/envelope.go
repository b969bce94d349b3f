package types

import (
	"bytes"
	"encoding/json"
)

// RawPayload is an undecoded upstream body. It is untrusted input.
type RawPayload json.RawMessage

// Shape classifies the top-level JSON value of a payload.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeArray
	ShapeObject
)

func (p RawPayload) Shape() Shape {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 {
		return ShapeUnknown
	}
	switch trimmed[0] {
	case '[':
		return ShapeArray
	case '{':
		return ShapeObject
	default:
		return ShapeUnknown
	}
}

// Envelope is the wrapped upstream shape. Pagination fields are pointers so a
// field the upstream omitted can be told apart from an explicit zero.
type Envelope struct {
	Data       json.RawMessage    `json:"data"`
	Pagination *PartialPagination `json:"pagination"`
	// Meta is where Laravel-style paginators put the same counters.
	Meta *PartialPagination `json:"meta"`
}

type PartialPagination struct {
	CurrentPage *json.Number `json:"current_page"`
	LastPage    *json.Number `json:"last_page"`
	Total       *json.Number `json:"total"`
	PerPage     *json.Number `json:"per_page"`
}
