package model

import (
	"encoding/json"
	"time"
)

type TemplateRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// DocumentView is the externally visible shape of a single document.
type DocumentView struct {
	ID          string           `json:"_id"`
	CreatedBy   string           `json:"createdBy"`
	Template    TemplateRef      `json:"template"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Variables   []Variable       `json:"variables,omitempty"`
	Blocks      map[string]Block `json:"blocks,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	// Version is surfaced as an ETag header, never in the body.
	Version int64 `json:"-"`
}

// DocumentSummary is one entry of the list view; variables are not reconciled there.
type DocumentSummary struct {
	ID          string      `json:"_id"`
	CreatedBy   string      `json:"createdBy"`
	Template    TemplateRef `json:"template"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type ContentElementSummary struct {
	ID     ID              `json:"_id"`
	Name   string          `json:"name"`
	URL    string          `json:"url,omitempty"`
	Size   json.RawMessage `json:"size,omitempty"`
	Type   string          `json:"type,omitempty"`
	Layout json.RawMessage `json:"layout,omitempty"`
}

type ListMode int

const (
	// ListModeAll returns every matching document in a single page.
	ListModeAll ListMode = iota
	ListModePaginated
)

type ListOptions struct {
	Mode  ListMode
	Page  int
	Limit int
}

// PageMeta mirrors the pagination block of list responses.
type PageMeta struct {
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

type ListView struct {
	Docs []DocumentSummary
	// Meta is nil in ListModeAll.
	Meta *PageMeta
}
