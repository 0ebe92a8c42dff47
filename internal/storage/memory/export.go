// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/SmartTank/extension/internal/storage"
)

// JournalExport is the root JSON structure
type JournalExport struct {
	SessionID        string         `json:"sessionId"`
	ExtensionVersion string         `json:"extensionVersion"`
	StartedAt        time.Time      `json:"startedAt"`
	EndedAt          time.Time      `json:"endedAt"`
	Meta             map[string]any `json:"meta,omitempty"`
	Tanks            []TankJSON     `json:"tanks"`
}

// TankJSON is the journal of one tank
type TankJSON struct {
	ID      uint32       `json:"id"`
	Shapes  []ShapeJSON  `json:"shapes"`
	Fuels   []FuelJSON   `json:"fuels"`
	Lengths []LengthJSON `json:"lengths"`
}

// ShapeJSON is one applied shape selection
type ShapeJSON struct {
	Time           time.Time `json:"time"`
	Family         string    `json:"family"`
	TopDiameter    float64   `json:"topDiameter"`
	BottomDiameter float64   `json:"bottomDiameter"`
}

// FuelJSON is one tank type switch
type FuelJSON struct {
	Time       time.Time `json:"time"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	WetDensity float64   `json:"wetDensity"`
}

// LengthJSON is one applied length
type LengthJSON struct {
	Time          time.Time `json:"time"`
	Family        string    `json:"family"`
	From          float64   `json:"from"`
	To            float64   `json:"to"`
	TargetWetMass float64   `json:"targetWetMass"`
	WetDensity    float64   `json:"wetDensity"`
	Recomputed    bool      `json:"recomputed,omitempty"`
}

// exportJSON writes the session journal to a (optionally gzipped) JSON file.
// Caller holds the write lock.
func (b *Backend) exportJSON() error {
	ended := b.now()
	export := b.buildExport(ended)

	timestamp := b.session.StartedAt.Format("20060102_150405")
	id := b.session.ID
	if len(id) > 8 {
		id = id[:8]
	}
	filename := fmt.Sprintf("session_%s_%s.json", timestamp, id)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	meta := storage.ExportMetadata{
		SessionID: b.session.ID,
		StartedAt: b.session.StartedAt,
		Duration:  ended.Sub(b.session.StartedAt),
		Tanks:     len(export.Tanks),
	}
	for _, t := range export.Tanks {
		meta.ShapeChanges += len(t.Shapes)
		meta.FuelChanges += len(t.Fuels)
		meta.LengthChanges += len(t.Lengths)
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = meta
	return nil
}

func (b *Backend) buildExport(ended time.Time) JournalExport {
	export := JournalExport{
		SessionID:        b.session.ID,
		ExtensionVersion: b.session.ExtensionVersion,
		StartedAt:        b.session.StartedAt,
		EndedAt:          ended,
		Meta:             b.session.Meta,
		Tanks:            make([]TankJSON, 0, len(b.tanks)),
	}

	for _, rec := range b.tanks {
		tj := TankJSON{
			ID:      uint32(rec.TankID),
			Shapes:  make([]ShapeJSON, 0, len(rec.ShapeChanges)),
			Fuels:   make([]FuelJSON, 0, len(rec.FuelChanges)),
			Lengths: make([]LengthJSON, 0, len(rec.LengthChanges)),
		}
		for _, c := range rec.ShapeChanges {
			tj.Shapes = append(tj.Shapes, ShapeJSON{
				Time:           c.Time,
				Family:         c.Selection.Family.String(),
				TopDiameter:    c.Selection.TopDiameter,
				BottomDiameter: c.Selection.BottomDiameter,
			})
		}
		for _, c := range rec.FuelChanges {
			tj.Fuels = append(tj.Fuels, FuelJSON{
				Time:       c.Time,
				From:       string(c.From),
				To:         string(c.To),
				WetDensity: c.WetDensity,
			})
		}
		for _, c := range rec.LengthChanges {
			tj.Lengths = append(tj.Lengths, LengthJSON{
				Time:          c.Time,
				Family:        c.Family.String(),
				From:          c.From,
				To:            c.To,
				TargetWetMass: c.TargetWetMass,
				WetDensity:    c.WetDensity,
				Recomputed:    c.Recomputed,
			})
		}
		export.Tanks = append(export.Tanks, tj)
	}
	sort.Slice(export.Tanks, func(i, j int) bool { return export.Tanks[i].ID < export.Tanks[j].ID })

	return export
}

func (b *Backend) writeJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
