package audit

import (
	"errors"
	"testing"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditEvent{}))
	return db
}

type brokenLedger struct{}

func (brokenLedger) Append(*models.AuditEvent) error { return errors.New("connection refused") }
func (brokenLedger) Recent(int) ([]models.AuditEvent, error) {
	return nil, errors.New("connection refused")
}

func TestGormLedgerAppendAssignsSequence(t *testing.T) {
	l := NewGormLedger(newTestDB(t))

	id := uuid.New()
	first := Event(models.EventActionProposed, models.ActorAI, "Proposed: restart_service on web-1",
		map[string]interface{}{"target": "web-1"}, &id)
	require.NoError(t, l.Append(first))

	second := Event("ACTION_APPROVE", "alice", "Action approved", nil, &id)
	require.NoError(t, l.Append(second))

	assert.Greater(t, second.Sequence, first.Sequence)

	events, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, "ACTION_APPROVE", events[0].EventType)
	assert.Equal(t, models.EventActionProposed, events[1].EventType)
	assert.Equal(t, models.ActorAI, events[1].Actor)
}

func TestMemoryLedgerSequenceMonotonic(t *testing.T) {
	l := NewMemoryLedger()

	var last uint64
	for i := 0; i < 5; i++ {
		e := Event("ACTION_PROPOSED", models.ActorAI, "proposed", nil, nil)
		require.NoError(t, l.Append(e))
		assert.Greater(t, e.Sequence, last)
		last = e.Sequence
	}

	events, err := l.Recent(3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, uint64(5), events[0].Sequence)
}

func TestFailoverLedgerFallsBackToMemory(t *testing.T) {
	mem := NewMemoryLedger()
	l := NewFailoverLedger(brokenLedger{}, mem)

	require.NoError(t, l.Append(Event("ACTION_PROPOSED", models.ActorAI, "proposed", nil, nil)))

	events, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ACTION_PROPOSED", events[0].EventType)
}

func TestEventMetadataMarshalled(t *testing.T) {
	e := Event("ACTION_PROPOSED", models.ActorAI, "proposed",
		map[string]interface{}{"severity": "HIGH"}, nil)
	assert.Contains(t, string(e.Metadata), "HIGH")
	assert.False(t, e.Timestamp.IsZero())
}
