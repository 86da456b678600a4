package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/querysql"
)

func scanRecord(row rowScanner) (*model.Record, error) {
	var (
		rec                  model.Record
		content              string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rec.ID, &rec.SectionID, &content, &rec.Position,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.Content, err = unmarshalContent(content); err != nil {
		return nil, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return &rec, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []*model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// CreateRecord inserts rec and fills in its ID and timestamps.
// Content is stored as given; callers serialize it first.
func (s *Store) CreateRecord(ctx context.Context, rec *model.Record) error {
	content, err := marshalContent(rec.Content)
	if err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (section_id, content, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SectionID, content, rec.Position, now, now)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = fromNanos(now)
	rec.UpdatedAt = rec.CreatedAt
	return nil
}

// UpdateRecord overwrites the content and position of rec.
func (s *Store) UpdateRecord(ctx context.Context, rec *model.Record) error {
	content, err := marshalContent(rec.Content)
	if err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET content = ?, position = ?, updated_at = ? WHERE id = ?
	`, content, rec.Position, now, rec.ID)
	if err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFound("record", strconv.FormatInt(rec.ID, 10))
	}
	rec.UpdatedAt = fromNanos(now)
	return nil
}

// UpdatePosition sets only the position of a record.
// updated_at is left alone so reordering does not disturb content order.
func (s *Store) UpdatePosition(ctx context.Context, id int64, position int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE records SET position = ? WHERE id = ?", position, id)
	if err != nil {
		return fmt.Errorf("update position of record %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFound("record", strconv.FormatInt(id, 10))
	}
	return nil
}

// DestroyRecord deletes a record by id.
func (s *Store) DestroyRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFound("record", strconv.FormatInt(id, 10))
	}
	return nil
}

// FindRecord retrieves a record together with its owning section.
// Returns a *model.NotFoundError if it does not exist.
func (s *Store) FindRecord(ctx context.Context, id int64) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+querysql.RecordColumns+" FROM records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFound("record", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("query record %d: %w", id, err)
	}

	sec, err := s.FindSection(ctx, rec.SectionID)
	if err != nil {
		return nil, err
	}
	rec.Section = sec
	return rec, nil
}

// ListRecords runs a compiled record query.
// Returns empty slice (not nil) if nothing matches.
func (s *Store) ListRecords(ctx context.Context, q querysql.RecordQuery) ([]*model.Record, error) {
	query, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile record query: %w", err)
	}
	return s.queryRecords(ctx, query, args...)
}

// SiblingRecords returns every record of a section in default order,
// without pagination.
func (s *Store) SiblingRecords(ctx context.Context, sectionID int64) ([]*model.Record, error) {
	return s.queryRecords(ctx,
		"SELECT "+querysql.RecordColumns+" FROM records WHERE section_id = ? ORDER BY "+
			querysql.DefaultOrder+", id ASC",
		sectionID)
}

// MaxPosition returns the highest position in a section.
// ok is false when the section has no records.
func (s *Store) MaxPosition(ctx context.Context, sectionID int64) (pos int, ok bool, err error) {
	var max sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		"SELECT MAX(position) FROM records WHERE section_id = ?", sectionID).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("query max position: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}
