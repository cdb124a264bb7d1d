package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"contentapi/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const artefactColumns = `slug,name,kind,owning_app,state,COALESCE(description,'') AS description,created_at,updated_at`

func (r Repo) scanArtefact(ctx context.Context, row *sql.Row) (domain.Artefact, error) {
	var a domain.Artefact
	err := row.Scan(&a.Slug, &a.Name, &a.Kind, &a.OwningApp, &a.State, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	tags, err := r.artefactTagIDs(ctx, a.Slug)
	if err != nil {
		return a, err
	}
	a.TagIDs = tags
	return a, nil
}

func (r Repo) artefactTagIDs(ctx context.Context, slug string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT tag_id FROM artefact_tags WHERE slug=? ORDER BY ord, tag_id`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) GetArtefact(ctx context.Context, slug string) (domain.Artefact, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+artefactColumns+` FROM artefacts WHERE slug=?`, slug)
	return r.scanArtefact(ctx, row)
}

func (r Repo) listArtefacts(ctx context.Context, query string, args ...any) ([]domain.Artefact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Artefact
	for rows.Next() {
		var a domain.Artefact
		if err := rows.Scan(&a.Slug, &a.Name, &a.Kind, &a.OwningApp, &a.State, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		tags, err := r.artefactTagIDs(ctx, res[i].Slug)
		if err != nil {
			return nil, err
		}
		res[i].TagIDs = tags
	}
	return res, nil
}

// ArtefactsWithTag returns artefacts whose tag set includes tagID, oldest
// first.
func (r Repo) ArtefactsWithTag(ctx context.Context, tagID string) ([]domain.Artefact, error) {
	return r.listArtefacts(ctx,
		`SELECT `+artefactColumns+` FROM artefacts
		 WHERE slug IN (SELECT slug FROM artefact_tags WHERE tag_id=?)
		 ORDER BY created_at, slug`, tagID)
}

// CuratedArtefactsWithTag returns the same set in the order curated on the
// tag itself.
func (r Repo) CuratedArtefactsWithTag(ctx context.Context, tagID string) ([]domain.Artefact, error) {
	return r.listArtefacts(ctx,
		`SELECT a.slug,a.name,a.kind,a.owning_app,a.state,COALESCE(a.description,'') AS description,a.created_at,a.updated_at
		 FROM artefacts a
		 JOIN artefact_tags at ON at.slug = a.slug
		 WHERE at.tag_id=?
		 ORDER BY at.ord, a.slug`, tagID)
}

func (r Repo) ArtefactsByKind(ctx context.Context, kind string) ([]domain.Artefact, error) {
	return r.listArtefacts(ctx,
		`SELECT `+artefactColumns+` FROM artefacts WHERE kind=? ORDER BY created_at, slug`, kind)
}

func (r Repo) CountArtefactsByKind(ctx context.Context, kind string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM artefacts WHERE kind=?`, kind).Scan(&n)
	return n, err
}

func (r Repo) InsertArtefact(ctx context.Context, a domain.Artefact) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO artefacts(slug,name,kind,owning_app,state,description,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		a.Slug, a.Name, a.Kind, a.OwningApp, a.State, nullable(a.Description), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	for i, tagID := range a.TagIDs {
		if _, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO artefact_tags(slug,tag_id,ord) VALUES (?,?,?)`, a.Slug, tagID, i); err != nil {
			return err
		}
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
