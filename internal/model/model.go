package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&ShapeChange{},
	&FuelChange{},
	&LengthChange{},
	&JournalPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// JournalPerformance samples the journal writer after each flush
type JournalPerformance struct {
	ID                  uint              `gorm:"primarykey"`
	Time                time.Time         `json:"time" gorm:"index:idx_journalperformance_time"`
	SessionID           string            `json:"sessionId" gorm:"size:36;index:idx_journalperformance_session_id"`
	Session             Session           `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*JournalPerformance) TableName() string {
	return "journal_performances"
}

// WriteQueueLengths is the model for the write queue lengths
type WriteQueueLengths struct {
	ShapeChanges  uint16 `json:"shapeChanges"`
	FuelChanges   uint16 `json:"fuelChanges"`
	LengthChanges uint16 `json:"lengthChanges"`
}

////////////////////////
// JOURNAL MODELS
////////////////////////

// Session is one run of the extension
type Session struct {
	ID               string            `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	StartedAt        time.Time         `json:"startedAt" gorm:"index:idx_session_started_at"`
	EndedAt          sql.NullTime      `json:"endedAt"`
	ExtensionVersion string            `json:"extensionVersion" gorm:"size:64"`
	Meta             datatypes.JSONMap `json:"meta"`

	ShapeChanges  []ShapeChange
	FuelChanges   []FuelChange
	LengthChanges []LengthChange
}

func (*Session) TableName() string {
	return "sessions"
}

// End marks the session finished at t.
func (s *Session) End(db *gorm.DB, t time.Time) error {
	return db.Model(s).Update("ended_at", sql.NullTime{Time: t, Valid: true}).Error
}

// ShapeChange is a diameter-matching decision applied to a tank
//
// Only Cylinder and Cone are recorded; a cylinder has equal diameters.
type ShapeChange struct {
	ID             uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID      string    `json:"sessionId" gorm:"size:36;index:idx_shapechange_session_id"`
	Session        Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	TankID         uint32    `json:"tankId" gorm:"index:idx_shapechange_tank_id"`
	Time           time.Time `json:"time" gorm:"index:idx_shapechange_time"`
	Family         string    `json:"family" gorm:"size:16"`
	TopDiameter    float64   `json:"topDiameter"`
	BottomDiameter float64   `json:"bottomDiameter"`
}

func (*ShapeChange) TableName() string {
	return "shape_changes"
}

// FuelChange is a switch of tank type made by fuel matching
type FuelChange struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID  string    `json:"sessionId" gorm:"size:36;index:idx_fuelchange_session_id"`
	Session    Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	TankID     uint32    `json:"tankId" gorm:"index:idx_fuelchange_tank_id"`
	Time       time.Time `json:"time" gorm:"index:idx_fuelchange_time"`
	FromType   string    `json:"from" gorm:"size:64"`
	ToType     string    `json:"to" gorm:"size:64"`
	WetDensity float64   `json:"wetDensity"`
}

func (*FuelChange) TableName() string {
	return "fuel_changes"
}

// LengthChange is a length proposal that passed the hysteresis check
type LengthChange struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID     string    `json:"sessionId" gorm:"size:36;index:idx_lengthchange_session_id"`
	Session       Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	TankID        uint32    `json:"tankId" gorm:"index:idx_lengthchange_tank_id"`
	Time          time.Time `json:"time" gorm:"index:idx_lengthchange_time"`
	Family        string    `json:"family" gorm:"size:16"`
	FromLength    float64   `json:"from"`
	ToLength      float64   `json:"to"`
	TargetWetMass float64   `json:"targetWetMass"`
	WetDensity    float64   `json:"wetDensity"`
	Recomputed    bool      `json:"recomputed" gorm:"default:false"`
}

func (*LengthChange) TableName() string {
	return "length_changes"
}
