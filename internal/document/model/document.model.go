package model

import (
	"encoding/json"
	"time"
)

// Document is a user-owned record instantiated from a Template.
type Document struct {
	ID         string
	TemplateID string
	CreatedBy  string
	Payload    Payload
	// Version increments on every persist; it backs the ETag / If-Match check.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Template is read-only from this service's point of view.
type Template struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Payload   TemplatePayload `json:"jsonObject"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DisplayName prefers the name carried in the template payload.
func (t Template) DisplayName() string {
	if t.Payload.Name != "" {
		return t.Payload.Name
	}
	return t.Name
}

// Payload is the typed form of a document's stored jsonObject.
type Payload struct {
	Name        string
	Description string
	Variables   []Variable
	// Blocks is keyed by an internal key that is not the block's own id.
	Blocks map[string]Block
	Attrs  Attrs
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var out Payload
	attrs, err := decodeObject(data, map[string]any{
		"name":        &out.Name,
		"description": &out.Description,
		"variables":   &out.Variables,
		"blocks":      &out.Blocks,
	})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*p = out
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if p.Name != "" {
		known["name"] = p.Name
	}
	if p.Description != "" {
		known["description"] = p.Description
	}
	if p.Variables != nil {
		known["variables"] = p.Variables
	}
	if p.Blocks != nil {
		known["blocks"] = p.Blocks
	}
	return encodeObject(p.Attrs, known)
}

type TemplatePayload struct {
	Name      string
	Variables []Variable
	Attrs     Attrs
}

func (p *TemplatePayload) UnmarshalJSON(data []byte) error {
	var out TemplatePayload
	attrs, err := decodeObject(data, map[string]any{
		"name":      &out.Name,
		"variables": &out.Variables,
	})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*p = out
	return nil
}

func (p TemplatePayload) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if p.Name != "" {
		known["name"] = p.Name
	}
	if p.Variables != nil {
		known["variables"] = p.Variables
	}
	return encodeObject(p.Attrs, known)
}

// Variable is either a template definition or a document override. Overrides
// normally carry only _id and value; definitions carry the full slot shape.
type Variable struct {
	ID    ID
	Value json.RawMessage
	Attrs Attrs
}

func (v *Variable) UnmarshalJSON(data []byte) error {
	var out Variable
	attrs, err := decodeObject(data, map[string]any{
		"_id":   &out.ID,
		"value": &out.Value,
	})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*v = out
	return nil
}

func (v Variable) MarshalJSON() ([]byte, error) {
	known := map[string]any{"_id": v.ID}
	if len(v.Value) > 0 {
		known["value"] = v.Value
	}
	return encodeObject(v.Attrs, known)
}

// Overlay returns v with the fields of o laid on top, the way an object spread would.
func (v Variable) Overlay(o Variable) Variable {
	out := Variable{ID: v.ID, Value: v.Value, Attrs: v.Attrs.clone()}
	if len(o.Attrs) > 0 && out.Attrs == nil {
		out.Attrs = make(Attrs, len(o.Attrs))
	}
	for k, raw := range o.Attrs {
		out.Attrs[k] = raw
	}
	if len(o.Value) > 0 {
		out.Value = o.Value
	}
	return out
}

type Block struct {
	ID              ID
	ContentElements []ContentElement
	Attrs           Attrs
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var out Block
	attrs, err := decodeObject(data, map[string]any{
		"_id":             &out.ID,
		"contentElements": &out.ContentElements,
	})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*b = out
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	known := map[string]any{"_id": b.ID}
	if b.ContentElements != nil {
		known["contentElements"] = b.ContentElements
	}
	return encodeObject(b.Attrs, known)
}

// ContentElement is an individual media/text asset inside a block.
type ContentElement struct {
	ID        ID
	Name      string
	Size      json.RawMessage
	Type      string
	Layout    json.RawMessage
	Thumbnail *Thumbnail
	Attrs     Attrs
}

func (c *ContentElement) UnmarshalJSON(data []byte) error {
	var out ContentElement
	attrs, err := decodeObject(data, map[string]any{
		"_id":               &out.ID,
		"name":              &out.Name,
		"size":              &out.Size,
		"type":              &out.Type,
		"layout":            &out.Layout,
		"thumbnailLocation": &out.Thumbnail,
	})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*c = out
	return nil
}

func (c ContentElement) MarshalJSON() ([]byte, error) {
	known := map[string]any{"_id": c.ID}
	if c.Name != "" {
		known["name"] = c.Name
	}
	if len(c.Size) > 0 {
		known["size"] = c.Size
	}
	if c.Type != "" {
		known["type"] = c.Type
	}
	if len(c.Layout) > 0 {
		known["layout"] = c.Layout
	}
	if c.Thumbnail != nil {
		known["thumbnailLocation"] = c.Thumbnail
	}
	return encodeObject(c.Attrs, known)
}

type Thumbnail struct {
	URL   string
	Attrs Attrs
}

func (t *Thumbnail) UnmarshalJSON(data []byte) error {
	var out Thumbnail
	attrs, err := decodeObject(data, map[string]any{"url": &out.URL})
	if err != nil {
		return err
	}
	out.Attrs = attrs
	*t = out
	return nil
}

func (t Thumbnail) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if t.URL != "" {
		known["url"] = t.URL
	}
	return encodeObject(t.Attrs, known)
}
