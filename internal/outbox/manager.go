package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/util"
)

// Stager collects outbox records for insertion with the current unit of
// work's transaction. Implemented by uow.UnitOfWork.
type Stager interface {
	StageOutbox(rec Record)
}

// Manager serializes integration events into outbox records. It never writes
// to the database itself; the staged rows commit or roll back together with
// the aggregate mutation that produced them.
type Manager struct {
	now func() time.Time
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Enqueue stages one integration event for durable delivery.
func (m *Manager) Enqueue(w Stager, ev integration.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	now := m.now().UTC()
	next := now
	w.StageOutbox(Record{
		ID:               util.New(),
		CreatedAt:        now,
		Type:             ev.EventName(),
		Data:             data,
		NextProcessingAt: &next,
	})
	return nil
}
