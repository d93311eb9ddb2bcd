package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type auditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Record appends one event. The table has no UPDATE or DELETE path; history
// only grows.
func (r *auditRepository) Record(ctx context.Context, ev *domain.AuditEvent) error {
	diff, err := json.Marshal(ev.Diff)
	if err != nil {
		return fmt.Errorf("marshal audit diff: %w", err)
	}
	query := `INSERT INTO audit_events (actor_id, entity_type, entity_id, action, diff, ip, user_agent, correlation_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		ev.ActorID, ev.EntityType, ev.EntityID, ev.Action, diff, ev.IP, ev.UserAgent, ev.CorrelationID,
	).Scan(&ev.ID, &ev.CreatedAt)
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType string, entityID int32, page, pageSize int32) ([]domain.AuditEvent, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, actor_id, entity_type, entity_id, action, diff, ip, user_agent, correlation_id, created_at
	          FROM audit_events WHERE entity_type = $1 AND entity_id = $2
	          ORDER BY id DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, entityType, entityID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		var diff []byte
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.EntityType, &ev.EntityID, &ev.Action,
			&diff, &ev.IP, &ev.UserAgent, &ev.CorrelationID, &ev.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(diff, &ev.Diff); err != nil {
			return nil, 0, fmt.Errorf("unmarshal audit diff: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM audit_events WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}
