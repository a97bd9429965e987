// Package payload holds the pure transforms applied to a document's stored
// jsonObject: variable reconciliation against the template, block addressing,
// and projection into the externally visible views.
package payload

import (
	"summarymaker/internal/document/model"
	"summarymaker/pkg/apperr"
)

// MergeForRead returns one entry per template definition, in template order,
// with the matching document override laid on top when there is one.
func MergeForRead(overrides, definitions []model.Variable) []model.Variable {
	if len(definitions) == 0 {
		return nil
	}
	byID := make(map[string]model.Variable, len(overrides))
	for _, o := range overrides {
		// The first override for an id wins, matching the order a scan would find them.
		if _, seen := byID[o.ID.Key()]; !seen {
			byID[o.ID.Key()] = o
		}
	}

	out := make([]model.Variable, 0, len(definitions))
	for _, def := range definitions {
		if o, ok := byID[def.ID.Key()]; ok {
			out = append(out, def.Overlay(o))
			continue
		}
		out = append(out, def.Overlay(model.Variable{}))
	}
	return out
}

// MergeForWrite validates incoming overrides against the template's ids and
// returns the new sparse override list: existing overrides not being replaced,
// followed by the incoming ones. The result is stored as is.
func MergeForWrite(existing, incoming []model.Variable, templateIDs []model.ID) ([]model.Variable, error) {
	known := make(map[string]struct{}, len(templateIDs))
	for _, id := range templateIDs {
		known[id.Key()] = struct{}{}
	}

	replaced := make(map[string]struct{}, len(incoming))
	for _, v := range incoming {
		if _, ok := known[v.ID.Key()]; !ok {
			return nil, apperr.InvalidInput("Invalid variable id provided")
		}
		replaced[v.ID.Key()] = struct{}{}
	}

	out := make([]model.Variable, 0, len(existing)+len(incoming))
	for _, v := range existing {
		if _, ok := replaced[v.ID.Key()]; ok {
			continue
		}
		out = append(out, v)
	}
	return append(out, incoming...), nil
}

// DefinitionIDs lists the ids of a template's variable definitions.
func DefinitionIDs(definitions []model.Variable) []model.ID {
	ids := make([]model.ID, 0, len(definitions))
	for _, d := range definitions {
		ids = append(ids, d.ID)
	}
	return ids
}
