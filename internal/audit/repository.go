package audit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one append-only audit record. Rows are never updated or deleted.
type Entry struct {
	UserID   string
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so entries can be
// written inside a caller's transaction or standalone after commit.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Recorder struct {
	db *pgxpool.Pool
}

func NewRecorder(db *pgxpool.Pool) *Recorder {
	return &Recorder{db: db}
}

// Record writes an audit row best-effort. Failures are logged and swallowed;
// auditing must never fail the operation it describes.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if err := Insert(ctx, r.db, e); err != nil {
		log.Printf("audit: record %s %s/%s failed: %v", e.Action, e.Entity, e.EntityID, err)
	}
}

func Insert(ctx context.Context, db execer, e Entry) error {
	var s *string
	if e.Metadata != nil {
		b, _ := json.Marshal(e.Metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (user_id, action, entity, entity_id, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := db.Exec(ctx, q, e.UserID, e.Action, e.Entity, e.EntityID, s)
	return err
}

// ListByEntity returns the audit trail for one entity, oldest first.
func (r *Recorder) ListByEntity(ctx context.Context, entity, entityID string) ([]Row, error) {
	const q = `
SELECT id, user_id, action, entity, entity_id, COALESCE(metadata, '{}'::jsonb), created_at::text
FROM audit_logs
WHERE entity = $1 AND entity_id = $2
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var rec Row
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Action, &rec.Entity, &rec.EntityID, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type Row struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entityId"`
	Metadata  any    `json:"metadata,omitempty"`
	CreatedAt string `json:"createdAt"`
}
