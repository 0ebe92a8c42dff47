package handlers

import (
	"github.com/SmartTank/extension/internal/dispatcher"
)

// Tank commands sent by the host.
const (
	CmdInit          = ":TANK:INIT:"
	CmdActivate      = ":TANK:ACTIVATE:"
	CmdUpdate        = ":TANK:UPDATE:"
	CmdScale         = ":TANK:SCALE:"
	CmdSettings      = ":TANK:SETTINGS:"
	CmdRemove        = ":TANK:REMOVE:"
	CmdBodies        = ":BODIES:"
	CmdCatalogReload = ":CATALOG:RELOAD:"
)

// RegisterHandlers registers the tank commands with the dispatcher. They all answer
// synchronously: the host applies the response on the same frame.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdInit, func(e dispatcher.Event) (any, error) {
		return s.InitTank(e.Args)
	}, dispatcher.Logged())

	d.Register(CmdActivate, func(e dispatcher.Event) (any, error) {
		return s.ActivateTank(e.Args)
	}, dispatcher.Logged())

	// Ticks arrive every frame per tank; not logged
	d.Register(CmdUpdate, func(e dispatcher.Event) (any, error) {
		return s.UpdateTank(e.Args)
	})

	d.Register(CmdScale, func(e dispatcher.Event) (any, error) {
		return s.ScaleTank(e.Args)
	}, dispatcher.Logged())

	d.Register(CmdSettings, func(e dispatcher.Event) (any, error) {
		return s.ApplySettings(e.Args)
	}, dispatcher.Logged())

	d.Register(CmdRemove, func(e dispatcher.Event) (any, error) {
		if err := s.RemoveTank(e.Args); err != nil {
			return nil, err
		}
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdBodies, func(e dispatcher.Event) (any, error) {
		return s.Bodies(), nil
	})

	d.Register(CmdCatalogReload, func(e dispatcher.Event) (any, error) {
		return s.ReloadCatalog(e.Args)
	}, dispatcher.Logged())
}
