package blockstate

import "sync/atomic"

// Ячейки мемоизации. Гонки при первом чтении безвредны:
// каждый участник вычисляет одно и то же значение.

const levelPresent = 1 << 31

// levelCell хранит уровень 0..15 и отдельный бит присутствия.
type levelCell struct {
	bits atomic.Uint32
}

func (c *levelCell) get(compute func() int) int {
	if b := c.bits.Load(); b&levelPresent != 0 {
		return int(b &^ levelPresent)
	}
	v := compute()
	c.bits.Store(uint32(v) | levelPresent)
	return v
}

// hashCell хранит вычисленный хеш.
type hashCell struct {
	set   atomic.Bool
	value atomic.Uint64
}

func (c *hashCell) get(compute func() uint64) uint64 {
	if c.set.Load() {
		return c.value.Load()
	}
	v := compute()
	c.value.Store(v)
	c.set.Store(true)
	return v
}
