package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/logger"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("document version has advanced")
)

const documentColumns = `id, template_id, created_by, json_object, version, created_at, updated_at`

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// FindByOwner loads a document only if ownerID created it.
func (r *DocumentRepository) FindByOwner(ctx context.Context, docID, ownerID string) (*model.Document, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND created_by = $2`, docID, ownerID)
	doc, err := scanDocument(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Sugar.Errorf("Failed to get doc %s for owner %s: %v", docID, ownerID, err)
	}
	return doc, err
}

func (r *DocumentRepository) FindByID(ctx context.Context, docID string) (*model.Document, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, docID)
	doc, err := scanDocument(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Sugar.Errorf("Failed to get doc %s: %v", docID, err)
	}
	return doc, err
}

func (r *DocumentRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE created_by = $1`, ownerID).Scan(&total)
	if err != nil {
		logger.Sugar.Errorf("Failed to count documents for user %s: %v", ownerID, err)
		return 0, err
	}
	return total, nil
}

// ListByOwner returns a page of the owner's documents, most recently updated first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE created_by = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents for user %s: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to read documents for user %s: %v", ownerID, err)
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate documents for user %s: %v", ownerID, err)
		return nil, err
	}
	return docs, nil
}

// UpdatePayload replaces the whole json_object of a document and bumps its
// version. When ifVersion is set the write only happens if the stored
// version still matches; otherwise the last write wins.
func (r *DocumentRepository) UpdatePayload(ctx context.Context, docID string, payload model.Payload, ifVersion *int64) (*model.Document, error) {
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode json_object for doc %s: %w", docID, err)
	}

	var row *sql.Row
	if ifVersion == nil {
		row = r.DB.QueryRowContext(ctx, `
			UPDATE documents SET json_object = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING `+documentColumns, docID, blob)
	} else {
		row = r.DB.QueryRowContext(ctx, `
			UPDATE documents SET json_object = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $3
			RETURNING `+documentColumns, docID, blob, *ifVersion)
	}

	doc, err := scanDocument(row)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
		return nil, err
	}
	if ifVersion == nil {
		return nil, ErrNotFound
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, docID).Scan(&exists); err != nil {
		logger.Sugar.Errorf("Failed to check existence of doc %s: %v", docID, err)
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, ErrNotFound
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var (
		doc  model.Document
		blob []byte
	)
	err := s.Scan(&doc.ID, &doc.TemplateID, &doc.CreatedBy, &blob, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &doc.Payload); err != nil {
			return nil, fmt.Errorf("decode json_object of doc %s: %w", doc.ID, err)
		}
	}
	return &doc, nil
}
