package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

const sectionColumns = "id, name, form, multiple, sortable, options, fields, created_at, updated_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(row rowScanner) (*model.Section, error) {
	var (
		sec                  model.Section
		options, fields      string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&sec.ID, &sec.Name, &sec.Form, &sec.Multiple, &sec.Sortable,
		&options, &fields, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if sec.Options, err = unmarshalParams(options); err != nil {
		return nil, fmt.Errorf("section %q: %w", sec.Name, err)
	}
	if sec.Fields, err = unmarshalFields(fields); err != nil {
		return nil, fmt.Errorf("section %q: %w", sec.Name, err)
	}
	sec.CreatedAt = fromNanos(createdAt)
	sec.UpdatedAt = fromNanos(updatedAt)
	return &sec, nil
}

// FindAllSections returns every section ordered by id.
// Returns empty slice (not nil) if there are none.
func (s *Store) FindAllSections(ctx context.Context) ([]*model.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sectionColumns+" FROM sections ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	sections := []*model.Section{}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}

// FindSection retrieves a section by id.
// Returns a *model.NotFoundError if it does not exist.
func (s *Store) FindSection(ctx context.Context, id int64) (*model.Section, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE id = ?", id)
	sec, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFound("section", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("query section %d: %w", id, err)
	}
	return sec, nil
}

// FindSectionByName retrieves a section by its (lowercase) name.
// Returns a *model.NotFoundError if it does not exist.
func (s *Store) FindSectionByName(ctx context.Context, name string) (*model.Section, error) {
	name = strings.ToLower(name)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE name = ?", name)
	sec, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFound("section", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query section %q: %w", name, err)
	}
	return sec, nil
}

// FindOrCreateSection returns the section with the given name, inserting an
// empty one first if needed. Names are lowercased.
//
// Uses INSERT OR IGNORE so repeated calls are idempotent.
func (s *Store) FindOrCreateSection(ctx context.Context, name string) (*model.Section, error) {
	name = strings.ToLower(name)
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sections (name, created_at, updated_at)
		VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert section %q: %w", name, err)
	}
	return s.FindSectionByName(ctx, name)
}

// UpdateSection persists the mutable attributes of sec and refreshes its
// UpdatedAt.
func (s *Store) UpdateSection(ctx context.Context, sec *model.Section) error {
	options, err := marshalParams(sec.Options)
	if err != nil {
		return err
	}
	fields, err := marshalFields(sec.Fields)
	if err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sections
		SET form = ?, multiple = ?, sortable = ?, options = ?, fields = ?, updated_at = ?
		WHERE id = ?
	`, sec.Form, sec.Multiple, sec.Sortable, options, fields, now, sec.ID)
	if err != nil {
		return fmt.Errorf("update section %q: %w", sec.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFound("section", strconv.FormatInt(sec.ID, 10))
	}
	sec.UpdatedAt = fromNanos(now)
	return nil
}

// DestroySectionsExcept deletes every section whose id is not in keep.
// The general section is always kept. Records of deleted sections are
// removed by the foreign key cascade. Returns the number of sections deleted.
func (s *Store) DestroySectionsExcept(ctx context.Context, keep []int64) (int64, error) {
	query := "DELETE FROM sections WHERE name != ?"
	args := []any{model.DefaultSectionName}
	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, id := range keep {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND id NOT IN (" + strings.Join(placeholders, ", ") + ")"
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("destroy sections: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("destroy sections: %w", err)
	}
	return n, nil
}
