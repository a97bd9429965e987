package payload

import (
	"math"

	"summarymaker/internal/document/model"
)

// ProjectSingle flattens a document and its template into a DocumentView.
// Name and description come from the document, never the template.
func ProjectSingle(doc model.Document, tpl model.Template) model.DocumentView {
	return model.DocumentView{
		ID:          doc.ID,
		CreatedBy:   doc.CreatedBy,
		Template:    model.TemplateRef{ID: tpl.ID, Name: tpl.DisplayName()},
		Name:        doc.Payload.Name,
		Description: doc.Payload.Description,
		Variables:   MergeForRead(doc.Payload.Variables, tpl.Payload.Variables),
		Blocks:      doc.Payload.Blocks,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Version:     doc.Version,
	}
}

// ProjectList flattens documents for the list view. Only the populated
// template's name is used; variables are not reconciled here.
func ProjectList(docs []model.Document, templates map[string]model.Template, meta *model.PageMeta) model.ListView {
	out := make([]model.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		ref := model.TemplateRef{ID: d.TemplateID}
		if tpl, ok := templates[d.TemplateID]; ok {
			ref.Name = tpl.DisplayName()
		}
		out = append(out, model.DocumentSummary{
			ID:          d.ID,
			CreatedBy:   d.CreatedBy,
			Template:    ref,
			Name:        d.Payload.Name,
			Description: d.Payload.Description,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}
	return model.ListView{Docs: out, Meta: meta}
}

// Paginate computes page metadata for total matching documents.
func Paginate(total int64, page, limit int) model.PageMeta {
	if page < 1 {
		page = 1
	}
	totalPages := 1
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
		if totalPages < 1 {
			totalPages = 1
		}
	}
	meta := model.PageMeta{
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if meta.HasPrevPage {
		prev := page - 1
		meta.PrevPage = &prev
	}
	if meta.HasNextPage {
		next := page + 1
		meta.NextPage = &next
	}
	return meta
}

// Offset is the number of documents skipped before page.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
