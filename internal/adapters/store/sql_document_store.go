package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres-backed DocumentStore keeping each document as a JSONB row.
// Merge writes use jsonb concatenation, so they merge top-level fields only;
// nested objects supplied in a merge replace the stored object.
type SQLDocumentStore struct {
	DB *sql.DB
}

func NewSQLDocumentStore(db *sql.DB) *SQLDocumentStore {
	return &SQLDocumentStore{DB: db}
}

func (s *SQLDocumentStore) GetAll(ctx context.Context, collection string) (_ []ports.Document, err error) {
	defer obs.Time(ctx, "documents.GetAll")(&err)

	if s.DB == nil {
		return nil, errors.New("document store: db is nil")
	}

	q := `
	SELECT id, data, created_at, updated_at
	FROM documents
	WHERE collection = $1
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, classifySQL("get all", collection, "", err)
	}
	defer rows.Close()

	out := make([]ports.Document, 0, 64)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, classifySQL("get all", collection, "", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQL("get all", collection, "", err)
	}

	return out, nil
}

func (s *SQLDocumentStore) Get(ctx context.Context, collection, id string) (_ ports.Document, err error) {
	defer obs.Time(ctx, "documents.Get")(&err)

	if s.DB == nil {
		return ports.Document{}, errors.New("document store: db is nil")
	}

	q := `
	SELECT id, data, created_at, updated_at
	FROM documents
	WHERE collection = $1 AND id = $2;
	`
	doc, err := scanDocument(s.DB.QueryRowContext(ctx, q, collection, id))
	if err != nil {
		return ports.Document{}, classifySQL("get", collection, id, err)
	}
	return doc, nil
}

func (s *SQLDocumentStore) Set(
	ctx context.Context,
	collection string,
	id string,
	data map[string]any,
	merge bool,
) (err error) {
	defer obs.Time(ctx, "documents.Set")(&err)

	if s.DB == nil {
		return errors.New("document store: db is nil")
	}
	if strings.TrimSpace(id) == "" {
		return domain.NewStoreError("set", collection, id, domain.ErrValidation, fmt.Errorf("empty document id"))
	}

	payload := make(map[string]any, len(data))
	for k, v := range data {
		if k == "createdAt" || k == "updatedAt" {
			continue
		}
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return domain.NewStoreError("set", collection, id, domain.ErrValidation, fmt.Errorf("encode document: %w", err))
	}

	q := `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES ($1, $2, $3::jsonb, now(), now())
	ON CONFLICT (collection, id) DO UPDATE
	SET data = EXCLUDED.data,
		created_at = now(),
		updated_at = now();
	`
	if merge {
		q = `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, now(), now())
		ON CONFLICT (collection, id) DO UPDATE
		SET data = documents.data || EXCLUDED.data,
			updated_at = now();
		`
	}

	if _, err := s.DB.ExecContext(ctx, q, collection, id, string(b)); err != nil {
		return classifySQL("set", collection, id, err)
	}
	return nil
}

func (s *SQLDocumentStore) Delete(ctx context.Context, collection, id string) (err error) {
	defer obs.Time(ctx, "documents.Delete")(&err)

	if s.DB == nil {
		return errors.New("document store: db is nil")
	}

	q := `DELETE FROM documents WHERE collection = $1 AND id = $2;`
	if _, err := s.DB.ExecContext(ctx, q, collection, id); err != nil {
		return classifySQL("delete", collection, id, err)
	}
	return nil
}

func (s *SQLDocumentStore) FindBy(
	ctx context.Context,
	collection string,
	field string,
	value any,
) (_ []ports.Document, err error) {
	defer obs.Time(ctx, "documents.FindBy")(&err)

	if s.DB == nil {
		return nil, errors.New("document store: db is nil")
	}

	q := `
	SELECT id, data, created_at, updated_at
	FROM documents
	WHERE collection = $1 AND data->>$2 = $3
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, q, collection, field, fmt.Sprint(value))
	if err != nil {
		return nil, classifySQL("find", collection, "", err)
	}
	defer rows.Close()

	out := make([]ports.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, classifySQL("find", collection, "", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQL("find", collection, "", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (ports.Document, error) {
	var (
		id        string
		raw       []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
		return ports.Document{}, err
	}

	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return ports.Document{}, fmt.Errorf("decode document %q: %w", id, err)
		}
	}
	data["createdAt"] = createdAt.UTC()
	data["updatedAt"] = updatedAt.UTC()

	return ports.Document{ID: id, Data: data}, nil
}

// classifySQL maps database/sql and Postgres failures onto the domain error taxonomy.
func classifySQL(op, collection, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewStoreError(op, collection, id, domain.ErrNotFound, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return domain.NewStoreError(op, collection, id, domain.ErrRemoteUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var kind error
		switch {
		case pgErr.Code == "42501":
			kind = domain.ErrPermissionDenied
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), strings.HasPrefix(pgErr.Code, "57P"):
			kind = domain.ErrRemoteUnavailable
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			kind = domain.ErrValidation
		default:
			kind = domain.ErrUnknown
		}
		return domain.NewStoreError(op, collection, id, kind, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewStoreError(op, collection, id, domain.ErrRemoteUnavailable, err)
	}

	return domain.NewStoreError(op, collection, id, domain.ErrUnknown, err)
}
