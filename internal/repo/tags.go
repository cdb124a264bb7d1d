package repo

import (
	"context"
	"database/sql"

	"contentapi/internal/domain"
)

const tagColumns = `tag_id,tag_type,title,COALESCE(description,'') AS description,COALESCE(parent_id,'') AS parent_id`

func scanTagRows(rows *sql.Rows) ([]domain.Tag, error) {
	defer rows.Close()
	var res []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.TagID, &t.TagType, &t.Title, &t.Description, &t.ParentID); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// TagsByID returns every tag sharing the given id, across all tag types.
// More than one result means the untyped form of the query is ambiguous.
func (r Repo) TagsByID(ctx context.Context, tagID string) ([]domain.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE tag_id=? ORDER BY tag_type`, tagID)
	if err != nil {
		return nil, err
	}
	return scanTagRows(rows)
}

func (r Repo) GetTag(ctx context.Context, tagID, tagType string) (domain.Tag, error) {
	var t domain.Tag
	err := r.DB.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE tag_id=? AND tag_type=?`, tagID, tagType).
		Scan(&t.TagID, &t.TagType, &t.Title, &t.Description, &t.ParentID)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// ParentTag resolves a tag's parent one level up. Parents are a lookup
// relation, not an ownership edge; no recursive traversal happens here.
func (r Repo) ParentTag(ctx context.Context, t domain.Tag) (domain.Tag, error) {
	if t.ParentID == "" {
		return domain.Tag{}, ErrNotFound
	}
	return r.GetTag(ctx, t.ParentID, t.TagType)
}

func (r Repo) ListTags(ctx context.Context, tagType string) ([]domain.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags ORDER BY tag_id, tag_type`
	args := []any{}
	if tagType != "" {
		query = `SELECT ` + tagColumns + ` FROM tags WHERE tag_type=? ORDER BY tag_id`
		args = append(args, tagType)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTagRows(rows)
}

// KindDimensionTagID returns the artefact's tag in the dimension named by
// its own kind: an "article" artefact's article-type tag, and so on. Most
// kinds have no matching tag dimension and report ErrNotFound.
func (r Repo) KindDimensionTagID(ctx context.Context, slug, kind string) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT at.tag_id FROM artefact_tags at
		 JOIN tags t ON t.tag_id = at.tag_id AND t.tag_type=?
		 WHERE at.slug=?
		 ORDER BY at.ord LIMIT 1`, kind, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return id, err
}

func (r Repo) InsertTag(ctx context.Context, t domain.Tag) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tags(tag_id,tag_type,title,description,parent_id) VALUES (?,?,?,?,?)`,
		t.TagID, t.TagType, t.Title, nullable(t.Description), nullable(t.ParentID))
	return err
}
