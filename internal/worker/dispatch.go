package worker

import (
	"fmt"
	"time"

	"github.com/SmartTank/extension/internal/dispatcher"
	"github.com/SmartTank/extension/pkg/core"
)

// Journal commands routed through the dispatcher.
const (
	CmdShapeChange  = ":JOURNAL:SHAPE:"
	CmdFuelChange   = ":JOURNAL:FUEL:"
	CmdLengthChange = ":JOURNAL:LENGTH:"
)

// RegisterHandlers registers the journal handlers with the dispatcher and routes
// ShapeChanged, FuelChanged and LengthChanged through it.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Shape and fuel changes are rare; lengths can change every tick while a craft is built
	d.Register(CmdShapeChange, m.handleShapeChange, dispatcher.Buffered(500), dispatcher.Logged())
	d.Register(CmdFuelChange, m.handleFuelChange, dispatcher.Buffered(500), dispatcher.Logged())
	d.Register(CmdLengthChange, m.handleLengthChange, dispatcher.Buffered(5000), dispatcher.Logged())

	m.mu.Lock()
	m.dispatcher = d
	m.mu.Unlock()
}

// ShapeChanged queues a shape change for the backend.
func (m *Manager) ShapeChanged(c core.ShapeChange) {
	if c.SessionID == "" {
		c.SessionID = m.SessionID()
	}
	m.enqueue(CmdShapeChange, c)
}

// FuelChanged queues a tank type switch for the backend.
func (m *Manager) FuelChanged(c core.FuelChange) {
	if c.SessionID == "" {
		c.SessionID = m.SessionID()
	}
	m.enqueue(CmdFuelChange, c)
}

// LengthChanged queues an applied length for the backend.
func (m *Manager) LengthChanged(c core.LengthChange) {
	if c.SessionID == "" {
		c.SessionID = m.SessionID()
	}
	m.enqueue(CmdLengthChange, c)
}

// enqueue hands the entry to the dispatcher, or straight to the handler when
// no dispatcher is registered.
func (m *Manager) enqueue(command string, payload any) {
	e := dispatcher.Event{Command: command, Payload: payload, Timestamp: time.Now()}

	m.mu.RLock()
	d := m.dispatcher
	m.mu.RUnlock()

	var err error
	if d != nil {
		_, err = d.Dispatch(e)
	} else {
		_, err = m.handle(e)
	}
	if err != nil {
		m.deps.Logger.Error().Err(err).Str("command", command).Msg("Failed to record journal entry")
	}
}

func (m *Manager) handle(e dispatcher.Event) (any, error) {
	switch e.Command {
	case CmdShapeChange:
		return m.handleShapeChange(e)
	case CmdFuelChange:
		return m.handleFuelChange(e)
	case CmdLengthChange:
		return m.handleLengthChange(e)
	}
	return nil, fmt.Errorf("%w: %s", dispatcher.ErrUnknownCommand, e.Command)
}

func (m *Manager) handleShapeChange(e dispatcher.Event) (any, error) {
	c, ok := e.Payload.(core.ShapeChange)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Command)
	}
	if err := m.backend.RecordShapeChange(&c); err != nil {
		return nil, fmt.Errorf("failed to record shape change: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleFuelChange(e dispatcher.Event) (any, error) {
	c, ok := e.Payload.(core.FuelChange)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Command)
	}
	if err := m.backend.RecordFuelChange(&c); err != nil {
		return nil, fmt.Errorf("failed to record fuel change: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLengthChange(e dispatcher.Event) (any, error) {
	c, ok := e.Payload.(core.LengthChange)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Command)
	}
	if err := m.backend.RecordLengthChange(&c); err != nil {
		return nil, fmt.Errorf("failed to record length change: %w", err)
	}
	return nil, nil
}
