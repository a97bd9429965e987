package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/logger"

	"github.com/lib/pq"
)

const templateColumns = `id, name, json_object, created_at, updated_at`

// TemplateRepository reads templates. Templates are never written here.
type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)
	tpl, err := scanTemplate(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Sugar.Errorf("Failed to get template %s: %v", id, err)
	}
	return tpl, err
}

// FindByIDs resolves several template references in one query. Unknown ids
// are simply absent from the result.
func (r *TemplateRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.Template, error) {
	out := make(map[string]model.Template, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		logger.Sugar.Errorf("Failed to get templates %v: %v", ids, err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to read templates %v: %v", ids, err)
			return nil, err
		}
		out[tpl.ID] = *tpl
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate templates %v: %v", ids, err)
		return nil, err
	}
	return out, nil
}

func scanTemplate(s scanner) (*model.Template, error) {
	var (
		tpl  model.Template
		blob []byte
	)
	err := s.Scan(&tpl.ID, &tpl.Name, &blob, &tpl.CreatedAt, &tpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &tpl.Payload); err != nil {
			return nil, fmt.Errorf("decode json_object of template %s: %w", tpl.ID, err)
		}
	}
	return &tpl, nil
}
