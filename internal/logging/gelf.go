package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfWriter dials a Graylog UDP input. The returned writer can be passed to
// SlogManager.Setup as its remote sink.
func NewGelfWriter(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	w.Facility = "smart_tank"
	return w, nil
}
