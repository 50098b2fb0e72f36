package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SQLiteStore implements Store on a SQLite database. Records are kept
// as JSON documents with their identity triple extracted into columns;
// field filters are pushed down via the json1 functions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore over an open database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateTable creates the records table. Run at startup before serving.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			kind      TEXT NOT NULL,
			namespace TEXT NOT NULL,
			name      TEXT NOT NULL,
			document  TEXT NOT NULL,
			PRIMARY KEY (kind, namespace, name)
		);

		CREATE INDEX IF NOT EXISTS idx_records_kind
			ON records (kind);
	`)
	return err
}

// FindRecords returns records matching the query, ordered by canonical
// identity so repeated fetches observe a stable order.
func (s *SQLiteStore) FindRecords(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	where := "1=1"

	if len(q.Groups) > 0 {
		groups := make([]string, 0, len(q.Groups))
		for _, g := range q.Groups {
			clause, groupArgs := buildGroupClause(g)
			groups = append(groups, clause)
			args = append(args, groupArgs...)
		}
		// Groups union; fields within a group intersect.
		where = "(" + strings.Join(groups, " OR ") + ")"
	}

	query := fmt.Sprintf(
		`SELECT document FROM records WHERE %s ORDER BY kind, namespace, name`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var r Record
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("decoding record document: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ResolveByRef(ctx context.Context, ref EntityRef) (Record, error) {
	ns := ref.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM records WHERE kind = ? AND namespace = ? AND name = ?`,
		strings.ToLower(ref.Kind), ns, ref.Name,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	var r Record
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("decoding record document: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (kind, namespace, name, document)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, namespace, name)
		DO UPDATE SET document = excluded.document`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", r.Ref(), err)
		}
		ref := r.Ref()
		if _, err := stmt.ExecContext(ctx, strings.ToLower(ref.Kind), ref.Namespace, ref.Name, doc); err != nil {
			return fmt.Errorf("upserting record %s: %w", ref, err)
		}
	}
	return tx.Commit()
}

// buildGroupClause renders one filter group as an AND of per-field
// conditions. The kind field maps to the identity column; everything
// else is matched inside the JSON document. The existence token maps
// to a json_type presence check, never to a literal comparison.
func buildGroupClause(g FilterGroup) (string, []any) {
	var conds []string
	var args []any

	for path, m := range g {
		if path == "kind" && !m.Exists {
			placeholders := make([]string, len(m.Values))
			for i, v := range m.Values {
				placeholders[i] = "?"
				args = append(args, strings.ToLower(v))
			}
			conds = append(conds, fmt.Sprintf("kind IN (%s)", strings.Join(placeholders, ", ")))
			continue
		}

		// The JSON path is derived from a caller-supplied field name,
		// so it is always bound as a parameter, never interpolated.
		jp := jsonPath(path)
		if m.Exists {
			conds = append(conds, "json_type(document, ?) IS NOT NULL")
			args = append(args, jp)
			continue
		}

		// json_each yields the elements of an array field, or the
		// single value of a scalar field, so one shape covers both.
		// JSON booleans surface through je.value as 0/1, so they are
		// matched on je.type to line up with the in-memory store's
		// true/false coercion.
		args = append(args, jp)
		placeholders := make([]string, len(m.Values))
		var boolTypes []string
		for i, v := range m.Values {
			placeholders[i] = "?"
			args = append(args, v)
			if v == "true" || v == "false" {
				boolTypes = append(boolTypes, "?")
			}
		}
		match := fmt.Sprintf("CAST(je.value AS TEXT) IN (%s)", strings.Join(placeholders, ", "))
		if len(boolTypes) > 0 {
			for _, v := range m.Values {
				if v == "true" || v == "false" {
					args = append(args, v)
				}
			}
			match += fmt.Sprintf(" OR je.type IN (%s)", strings.Join(boolTypes, ", "))
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(document, ?) je WHERE %s)", match))
	}

	if len(conds) == 0 {
		return "1=1", nil
	}
	return "(" + strings.Join(conds, " AND ") + ")", args
}

// jsonPath converts a dot-separated field path to a SQLite JSON path.
// Numeric segments become array indices; keys are quoted so dots and
// spaces inside a segment cannot escape the path.
func jsonPath(path string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range strings.Split(path, ".") {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		b.WriteString(`."` + strings.ReplaceAll(seg, `"`, ``) + `"`)
	}
	return b.String()
}
