package hostabi

import (
	"sync/atomic"

	"github.com/SmartTank/extension/internal/dispatcher"
)

const unsetVersion = "No version set"

var (
	version atomic.Pointer[string]
	router  atomic.Pointer[dispatcher.Dispatcher]
)

// SetVersion sets what SmartTankVersion reports to the host.
func SetVersion(v string) { version.Store(&v) }

func Version() string {
	if v := version.Load(); v != nil {
		return *v
	}
	return unsetVersion
}

// SetDispatcher installs the router for Call and CallRaw. Nil uninstalls it.
func SetDispatcher(d *dispatcher.Dispatcher) { router.Store(d) }

func GetDispatcher() *dispatcher.Dispatcher { return router.Load() }
