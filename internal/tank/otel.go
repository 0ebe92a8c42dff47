package tank

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/SmartTank/extension/internal/tank"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	shapes  metric.Int64Counter
	fuels   metric.Int64Counter
	lengths metric.Int64Counter
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		in  instruments
		err error
	)
	in.shapes, err = m.Int64Counter(
		"tank.shapes.applied",
		metric.WithDescription("Shape selections applied by diameter matching"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shapes counter: %w", err)
	}
	in.fuels, err = m.Int64Counter(
		"tank.fuel.changed",
		metric.WithDescription("Tank type switches made by fuel matching"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fuel counter: %w", err)
	}
	in.lengths, err = m.Int64Counter(
		"tank.lengths.applied",
		metric.WithDescription("Length proposals that passed the hysteresis check"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lengths counter: %w", err)
	}
	return &in, nil
}
