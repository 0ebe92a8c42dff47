package database

import (
	"fmt"

	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/internal/model/convert"
	"github.com/SmartTank/extension/pkg/core"
	"gorm.io/gorm"
)

// SessionJournal is everything recorded during one session, in time order.
type SessionJournal struct {
	Session core.Session
	Shapes  []core.ShapeChange
	Fuels   []core.FuelChange
	Lengths []core.LengthChange
}

// LoadSession reads a session and its journal entries back from db.
func LoadSession(db *gorm.DB, sessionID string) (*SessionJournal, error) {
	var s model.Session
	if err := db.Where("id = ?", sessionID).First(&s).Error; err != nil {
		return nil, fmt.Errorf("error getting session %s: %w", sessionID, err)
	}

	var shapes []model.ShapeChange
	if err := db.Where("session_id = ?", sessionID).Order("time, id").Find(&shapes).Error; err != nil {
		return nil, fmt.Errorf("error getting shape changes: %w", err)
	}
	var fuels []model.FuelChange
	if err := db.Where("session_id = ?", sessionID).Order("time, id").Find(&fuels).Error; err != nil {
		return nil, fmt.Errorf("error getting fuel changes: %w", err)
	}
	var lengths []model.LengthChange
	if err := db.Where("session_id = ?", sessionID).Order("time, id").Find(&lengths).Error; err != nil {
		return nil, fmt.Errorf("error getting length changes: %w", err)
	}

	j := &SessionJournal{
		Session: convert.SessionToCore(s),
		Shapes:  make([]core.ShapeChange, 0, len(shapes)),
		Fuels:   make([]core.FuelChange, 0, len(fuels)),
		Lengths: make([]core.LengthChange, 0, len(lengths)),
	}
	for _, c := range shapes {
		j.Shapes = append(j.Shapes, convert.ShapeChangeToCore(c))
	}
	for _, c := range fuels {
		j.Fuels = append(j.Fuels, convert.FuelChangeToCore(c))
	}
	for _, c := range lengths {
		j.Lengths = append(j.Lengths, convert.LengthChangeToCore(c))
	}
	return j, nil
}
