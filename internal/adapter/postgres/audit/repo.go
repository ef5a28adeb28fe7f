// Package audit implements the audit trail repository using PostgreSQL.
// It provides append-only operations for audit records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Repo provides audit trail persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const insertSQL = `
INSERT INTO audit_log (id, actor_id, owner_id, entity_type, entity_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const trimSQL = `
DELETE FROM audit_log
WHERE owner_id = $1 AND entity_type = $2
  AND id NOT IN (
    SELECT id FROM audit_log
    WHERE owner_id = $1 AND entity_type = $2
    ORDER BY created_at DESC
    LIMIT $3
  )`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends a new audit record.
func (r *Repo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	changesJSON, err := json.Marshal(record.Changes)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("audit_record marshal changes: %w", err)
	}

	_, err = q.Exec(ctx, insertSQL,
		record.ID, record.ActorID, record.OwnerID,
		string(record.EntityType), record.EntityID, string(record.Action),
		changesJSON, record.CreatedAt,
	)
	if err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_record", record.ID)
	}

	return record, nil
}

// Log creates an audit record without returning it (fire-and-forget).
// Satisfies the auditLogger interfaces of the mutating services.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Create(ctx, record)
	return err
}

// Trim drops records beyond the newest keep entries for an owner and
// entity type. Keeps the audit table bounded per entity history cap.
func (r *Repo) Trim(ctx context.Context, ownerID uuid.UUID, entityType domain.EntityType, keep int) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, trimSQL, ownerID, string(entityType), keep); err != nil {
		return postgres.MapError(err, "audit_record", ownerID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByEntity returns the change history for one entity, newest first.
func (r *Repo) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	query := r.sb.Select(auditColumns...).
		From("audit_log").
		Where(squirrel.Eq{"entity_type": string(entityType), "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	return r.list(ctx, query)
}

// GetByOwner returns audit records across all of an owner's entities,
// newest first, with pagination.
func (r *Repo) GetByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.AuditRecord, error) {
	query := r.sb.Select(auditColumns...).
		From("audit_log").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, query)
}

var auditColumns = []string{
	"id", "actor_id", "owner_id", "entity_type", "entity_id", "action", "changes", "created_at",
}

func (r *Repo) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.AuditRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit_records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var (
			rec        domain.AuditRecord
			entityType string
			action     string
			changesRaw []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.ActorID, &rec.OwnerID, &entityType, &rec.EntityID,
			&action, &changesRaw, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit_record: %w", err)
		}
		rec.EntityType = domain.EntityType(entityType)
		rec.Action = domain.AuditAction(action)
		if len(changesRaw) > 0 {
			rec.Changes = make(map[string]any)
			if err := json.Unmarshal(changesRaw, &rec.Changes); err != nil {
				return nil, fmt.Errorf("audit_record %s unmarshal changes: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit_records: %w", err)
	}

	return records, nil
}
