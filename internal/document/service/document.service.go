package service

import (
	"context"
	"errors"
	"fmt"

	"summarymaker/internal/document/model"
	"summarymaker/internal/document/payload"
	"summarymaker/internal/document/repository"
	"summarymaker/pkg/apperr"
	"summarymaker/pkg/logger"
)

type DocumentStore interface {
	FindByOwner(ctx context.Context, docID, ownerID string) (*model.Document, error)
	FindByID(ctx context.Context, docID string) (*model.Document, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Document, error)
	UpdatePayload(ctx context.Context, docID string, p model.Payload, ifVersion *int64) (*model.Document, error)
}

type TemplateStore interface {
	FindByID(ctx context.Context, id string) (*model.Template, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Template, error)
}

// Notifier is told about every persisted update. It must not block.
type Notifier interface {
	DocumentUpdated(view model.DocumentView)
}

type DocumentService struct {
	Docs      DocumentStore
	Templates TemplateStore
	Notifier  Notifier
	// MaxLimit caps the page size of list requests. Zero means unbounded.
	MaxLimit int
}

func NewDocumentService(docs DocumentStore, templates TemplateStore, notifier Notifier, maxLimit int) *DocumentService {
	return &DocumentService{Docs: docs, Templates: templates, Notifier: notifier, MaxLimit: maxLimit}
}

// FetchDocument returns one owned document with its variables reconciled
// against the template.
func (s *DocumentService) FetchDocument(ctx context.Context, requesterID, userID, documentID string) (*model.DocumentView, error) {
	if requesterID != userID {
		return nil, apperr.Unauthorized()
	}
	doc, err := s.Docs.FindByOwner(ctx, documentID, userID)
	if err != nil {
		return nil, storeError(err, "Specified document doesnt exists")
	}
	tpl, err := s.template(ctx, doc)
	if err != nil {
		return nil, err
	}
	view := payload.ProjectSingle(*doc, *tpl)
	return &view, nil
}

// ListDocuments returns the documents owned by userID, newest update first.
func (s *DocumentService) ListDocuments(ctx context.Context, requesterID, userID string, q model.ListQuery) (*model.ListView, error) {
	if requesterID != userID {
		return nil, apperr.Unauthorized()
	}
	if err := q.Validate(); err != nil {
		return nil, apperr.InvalidInput(model.ValidationMessage(err))
	}
	opts := q.Options()

	total, err := s.Docs.CountByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	limit := opts.Limit
	if opts.Mode == model.ListModeAll {
		limit = int(total)
	}
	limit = s.capLimit(limit)
	if opts.Mode == model.ListModeAll && int64(limit) < total {
		logger.Sugar.Warnf("Listing %d of %d documents for user %s: capped by LIST_MAX_LIMIT", limit, total, userID)
	}

	docs, err := s.Docs.ListByOwner(ctx, userID, limit, payload.Offset(opts.Page, limit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	templates, err := s.Templates.FindByIDs(ctx, templateIDs(docs))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var meta *model.PageMeta
	if opts.Mode == model.ListModePaginated {
		m := payload.Paginate(total, opts.Page, limit)
		meta = &m
	}
	view := payload.ProjectList(docs, templates, meta)
	return &view, nil
}

// FetchBlockContent summarizes the content elements of one block. The document
// is addressed by id alone.
func (s *DocumentService) FetchBlockContent(ctx context.Context, documentID, blockID string) ([]model.ContentElementSummary, error) {
	doc, err := s.Docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, storeError(err, "Provided documentId doesnt exists")
	}
	block, err := payload.FindBlock(doc.Payload, blockID)
	if err != nil {
		return nil, err
	}
	return payload.ProjectContentElements(block), nil
}

// UpdateDocument applies a PATCH body to an owned document. When ifVersion is
// set the write only happens if the stored version still matches.
func (s *DocumentService) UpdateDocument(ctx context.Context, requesterID, userID, documentID string, body []byte, ifVersion *int64) (*model.DocumentView, error) {
	req, decodeErr := model.DecodeUpdateRequest(body)
	if errors.Is(decodeErr, model.ErrNoData) {
		return nil, apperr.NoData()
	}
	if requesterID != userID {
		return nil, apperr.Unauthorized()
	}
	if decodeErr != nil {
		return nil, apperr.InvalidInput(decodeErr.Error())
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.InvalidInput(model.ValidationMessage(err))
	}

	doc, err := s.Docs.FindByOwner(ctx, documentID, userID)
	if err != nil {
		return nil, storeError(err, "Provided documentId doesnt exists")
	}
	if ifVersion != nil && *ifVersion != doc.Version {
		return nil, apperr.Conflict("Document has been modified")
	}
	tpl, err := s.template(ctx, doc)
	if err != nil {
		return nil, err
	}

	next := doc.Payload
	if req.Name != nil && *req.Name != "" {
		next.Name = *req.Name
	}
	if req.Description != nil && *req.Description != "" {
		next.Description = *req.Description
	}
	if req.Variables != nil {
		merged, err := payload.MergeForWrite(doc.Payload.Variables, req.Overrides(), payload.DefinitionIDs(tpl.Payload.Variables))
		if err != nil {
			return nil, err
		}
		next.Variables = merged
	}

	saved, err := s.Docs.UpdatePayload(ctx, documentID, next, ifVersion)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperr.Conflict("Document has been modified")
		}
		return nil, storeError(err, "Provided documentId doesnt exists")
	}

	view := payload.ProjectSingle(*saved, *tpl)
	if s.Notifier != nil {
		s.Notifier.DocumentUpdated(view)
	}
	logger.Sugar.Infof("Document %s updated by %s (version %d)", documentID, requesterID, saved.Version)
	return &view, nil
}

// AuthorizeSubscription checks that requesterID may follow live updates of a document.
func (s *DocumentService) AuthorizeSubscription(ctx context.Context, requesterID, userID, documentID string) error {
	if requesterID != userID {
		return apperr.Unauthorized()
	}
	if _, err := s.Docs.FindByOwner(ctx, documentID, userID); err != nil {
		return storeError(err, "Specified document doesnt exists")
	}
	return nil
}

func (s *DocumentService) template(ctx context.Context, doc *model.Document) (*model.Template, error) {
	tpl, err := s.Templates.FindByID(ctx, doc.TemplateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(fmt.Errorf("template %s of document %s is missing", doc.TemplateID, doc.ID))
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tpl, nil
}

func (s *DocumentService) capLimit(limit int) int {
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		return s.MaxLimit
	}
	return limit
}

func storeError(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(err)
}

func templateIDs(docs []model.Document) []string {
	seen := make(map[string]struct{}, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.TemplateID]; ok {
			continue
		}
		seen[d.TemplateID] = struct{}{}
		ids = append(ids, d.TemplateID)
	}
	return ids
}
