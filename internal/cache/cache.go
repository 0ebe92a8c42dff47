package cache

import (
	"sort"
	"sync"

	"github.com/SmartTank/extension/internal/tank"
	"github.com/SmartTank/extension/pkg/core"
)

// TankCache holds the controller of every tank the host has initialized, keyed by part ID.
// Controllers are created on init and looked up on every tick.
type TankCache struct {
	m     sync.Mutex
	tanks map[core.PartID]*tank.Controller
}

func NewTankCache() *TankCache {
	return &TankCache{
		tanks: make(map[core.PartID]*tank.Controller),
	}
}

func (c *TankCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.tanks = make(map[core.PartID]*tank.Controller)
}

func (c *TankCache) Get(id core.PartID) (*tank.Controller, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	t, ok := c.tanks[id]
	return t, ok
}

// Add stores ctrl under its ID, replacing any previous controller for that tank.
func (c *TankCache) Add(ctrl *tank.Controller) {
	c.m.Lock()
	defer c.m.Unlock()
	c.tanks[ctrl.ID] = ctrl
}

// Delete forgets a tank. It reports whether the tank was known.
func (c *TankCache) Delete(id core.PartID) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.tanks[id]
	delete(c.tanks, id)
	return ok
}

func (c *TankCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.tanks)
}

// IDs returns the known tank IDs in ascending order.
func (c *TankCache) IDs() []core.PartID {
	c.m.Lock()
	defer c.m.Unlock()
	ids := make([]core.PartID, 0, len(c.tanks))
	for id := range c.tanks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every cached controller while holding the lock.
func (c *TankCache) Each(fn func(*tank.Controller)) {
	c.m.Lock()
	defer c.m.Unlock()
	for _, t := range c.tanks {
		fn(t)
	}
}
