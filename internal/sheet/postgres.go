package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore keeps sheets in a single sheet_rows table: one record per
// physical row, header at position 1, cells as a JSONB string array.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// classify tags resource-exhaustion SQL states as transient so the retry
// wrapper backs off instead of failing the request.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 53 is insufficient resources (connection/quota limits);
		// 57P03 is "the database system is starting up".
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "53" || pgErr.Code == "57P03" {
			return markTransient(fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err))
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func (s *PostgresStore) ReadAll(ctx context.Context, sheet string) (Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, cells
		FROM sheet_rows
		WHERE sheet=$1
		ORDER BY position
	`, sheet)
	if err != nil {
		return Table{}, classify("read "+sheet, err)
	}
	defer rows.Close()

	var table Table
	for rows.Next() {
		var position int64
		var cellsRaw []byte
		if err := rows.Scan(&position, &cellsRaw); err != nil {
			return Table{}, classify("scan "+sheet, err)
		}
		var cells []string
		if err := json.Unmarshal(cellsRaw, &cells); err != nil {
			return Table{}, fmt.Errorf("%w: decode %s row %d: %v", ErrStoreUnavailable, sheet, position, err)
		}
		if position == 1 {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return Table{}, classify("iterate "+sheet, err)
	}
	return table, nil
}

func (s *PostgresStore) EnsureHeader(ctx context.Context, sheet string, header []string) error {
	var stored []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT cells FROM sheet_rows WHERE sheet=$1 AND position=1
	`, sheet).Scan(&stored)
	if err == nil {
		var current []string
		if json.Unmarshal(stored, &current) == nil && HeaderMatches(current, header) {
			return nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return classify("read header "+sheet, err)
	}

	encoded, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("%w: encode header: %v", ErrWriteFailed, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, position, cells)
		VALUES ($1, 1, $2::jsonb)
		ON CONFLICT (sheet, position) DO UPDATE SET cells=EXCLUDED.cells, updated_at=NOW()
	`, sheet, string(encoded))
	if err != nil {
		return writeClassify("ensure header "+sheet, err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sheet string, row []string) error {
	encoded, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%w: encode row: %v", ErrWriteFailed, err)
	}
	// Positions are dense per sheet; the header at position 1 anchors the
	// COALESCE for the first data row.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, position, cells)
		SELECT $1, COALESCE(MAX(position), 1)+1, $2::jsonb
		FROM sheet_rows WHERE sheet=$1
	`, sheet, string(encoded))
	if err != nil {
		return writeClassify("append "+sheet, err)
	}
	return nil
}

func (s *PostgresStore) Overwrite(ctx context.Context, sheet string, position int, row []string) error {
	encoded, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%w: encode row: %v", ErrWriteFailed, err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE sheet_rows SET cells=$3::jsonb, updated_at=NOW()
		WHERE sheet=$1 AND position=$2
	`, sheet, position, string(encoded))
	if err != nil {
		return writeClassify(fmt.Sprintf("overwrite %s row %d", sheet, position), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return writeClassify("overwrite "+sheet, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s row %d out of range", ErrWriteFailed, sheet, position)
	}
	return nil
}

func writeClassify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "53" || pgErr.Code == "57P03" {
			return markTransient(fmt.Errorf("%w: %s: %v", ErrWriteFailed, op, err))
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrWriteFailed, op, err)
}
