package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"contentapi/internal/domain"
)

const editionColumns = `id,slug,kind,state,title,COALESCE(payload_json,'') AS payload_json,created_at,updated_at`

func scanEdition(row *sql.Row) (domain.Edition, error) {
	var e domain.Edition
	err := row.Scan(&e.ID, &e.Slug, &e.Kind, &e.State, &e.Title, &e.PayloadJSON, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// FindPublishedEditionForSlug is the read-time half of the artefact/edition
// association: the two records are stored independently and matched here by
// slug, never by foreign key.
func (r Repo) FindPublishedEditionForSlug(ctx context.Context, slug string) (domain.Edition, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE slug=? AND state=? ORDER BY updated_at DESC LIMIT 1`,
		slug, domain.EditionPublished)
	return scanEdition(row)
}

// HasArchivedEditionForSlug reports whether content at this slug was once
// public and has been withdrawn.
func (r Repo) HasArchivedEditionForSlug(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM editions WHERE slug=? AND state=?`, slug, domain.EditionArchived).Scan(&n)
	return n > 0, err
}

// PublishedEditionsByIdentifiers returns published business-support
// editions matching the given scheme identifiers. Unknown identifiers are
// simply absent from the result.
func (r Repo) PublishedEditionsByIdentifiers(ctx context.Context, identifiers []string) ([]domain.Edition, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}
	args := []any{domain.EditionPublished, domain.KindBusinessSupport}
	for _, id := range identifiers {
		args = append(args, id)
	}
	query := `SELECT ` + editionColumns + ` FROM editions
		WHERE state=? AND kind=?
		AND json_extract(payload_json,'$.business_support_identifier') IN (` + placeholders(len(identifiers)) + `)
		ORDER BY json_extract(payload_json,'$.business_support_identifier')`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Edition
	for rows.Next() {
		var e domain.Edition
		if err := rows.Scan(&e.ID, &e.Slug, &e.Kind, &e.State, &e.Title, &e.PayloadJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) InsertEdition(ctx context.Context, e domain.Edition) error {
	if e.Kind == domain.KindSmartAnswer && e.PayloadJSON != "" {
		var payload struct {
			Nodes []domain.SmartAnswerNode `json:"nodes"`
		}
		if err := json.Unmarshal([]byte(e.PayloadJSON), &payload); err != nil {
			return fmt.Errorf("smart answer payload: %w", err)
		}
		if err := domain.ValidateSmartAnswerGraph(payload.Nodes); err != nil {
			return err
		}
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO editions(id,slug,kind,state,title,payload_json,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.Slug, e.Kind, e.State, e.Title, nullable(e.PayloadJSON), e.CreatedAt, e.UpdatedAt)
	return err
}
