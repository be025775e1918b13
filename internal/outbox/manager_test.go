package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skrasekmichael/teamup/internal/integration"
)

type captureStager struct{ recs []Record }

func (s *captureStager) StageOutbox(rec Record) { s.recs = append(s.recs, rec) }

func TestManager_Enqueue(t *testing.T) {
	m := NewManager()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	stager := &captureStager{}
	ev := integration.EmailCreated{To: "a@b.c", Subject: "hi", Body: "hello"}

	require.NoError(t, m.Enqueue(stager, ev))
	require.Len(t, stager.recs, 1)

	rec := stager.recs[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, integration.TypeEmailCreated, rec.Type)
	assert.Equal(t, fixed, rec.CreatedAt)
	require.NotNil(t, rec.NextProcessingAt)
	assert.Equal(t, fixed, *rec.NextProcessingAt)
	assert.Nil(t, rec.ProcessedAt)
	assert.Zero(t, rec.FailCount)

	var got integration.EmailCreated
	require.NoError(t, json.Unmarshal(rec.Data, &got))
	assert.Equal(t, ev, got)
}

func TestManager_Enqueue_UniqueIDs(t *testing.T) {
	m := NewManager()
	stager := &captureStager{}

	require.NoError(t, m.Enqueue(stager, integration.EmailCreated{To: "a@b.c"}))
	require.NoError(t, m.Enqueue(stager, integration.EmailCreated{To: "a@b.c"}))

	require.Len(t, stager.recs, 2)
	assert.NotEqual(t, stager.recs[0].ID, stager.recs[1].ID)
}
