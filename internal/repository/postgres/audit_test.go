package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository/postgres"
)

func TestAuditRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewAuditRepository(db)
	ctx := context.Background()

	ev := &domain.AuditEvent{
		ActorID:       41,
		EntityType:    domain.EntityInvoice,
		EntityID:      7,
		Action:        "invoice.accepted",
		Diff:          domain.NewDiff().Change("status", "APPROVED", "ACCEPTED"),
		IP:            "10.0.0.1",
		CorrelationID: "corr-1",
	}

	mock.ExpectQuery("INSERT INTO audit_events").
		WithArgs(ev.ActorID, ev.EntityType, ev.EntityID, ev.Action, sqlmock.AnyArg(), ev.IP, ev.UserAgent, ev.CorrelationID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, time.Now()))

	err = repo.Record(ctx, ev)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), ev.ID)
}

func TestAuditRepository_ListByEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewAuditRepository(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "actor_id", "entity_type", "entity_id", "action", "diff", "ip", "user_agent", "correlation_id", "created_at",
	}).AddRow(2, 41, "invoice", 7, "invoice.accepted", []byte(`{"status":{"old":"APPROVED","new":"ACCEPTED"}}`), "", "", "corr-1", now).
		AddRow(1, 41, "invoice", 7, "invoice.reviewed", []byte(`{}`), "", "", "corr-0", now)

	mock.ExpectQuery("SELECT (.+) FROM audit_events").
		WithArgs("invoice", int32(7), int32(20), int32(0)).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM audit_events").
		WithArgs("invoice", int32(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	events, total, err := repo.ListByEntity(ctx, "invoice", 7, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Len(t, events, 2)
	assert.Equal(t, "invoice.accepted", events[0].Action)
	assert.Equal(t, "ACCEPTED", events[0].Diff["status"].New)
}
