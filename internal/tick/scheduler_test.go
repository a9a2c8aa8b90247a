package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	name   string
	log    *[]string
	onTick func()
}

func (p *probe) Tick(float64) {
	*p.log = append(*p.log, p.name)
	if p.onTick != nil {
		p.onTick()
	}
}

func TestOrder(t *testing.T) {
	var log []string
	s := NewScheduler()
	s.Add(&probe{name: "late", log: &log})
	s.AddWithOrder(&probe{name: "first", log: &log}, 0)
	s.AddWithOrder(&probe{name: "mid-a", log: &log}, 10)
	s.AddWithOrder(&probe{name: "mid-b", log: &log}, 10)

	s.Tick(0.016)
	assert.Equal(t, []string{"first", "mid-a", "mid-b", "late"}, log)
}

func TestAddDuringTickIsDeferred(t *testing.T) {
	var log []string
	s := NewScheduler()
	spawned := &probe{name: "spawned", log: &log}
	spawner := &probe{name: "spawner", log: &log}
	spawner.onTick = func() { s.Add(spawned) }
	s.Add(spawner)

	s.Tick(1)
	assert.Equal(t, []string{"spawner"}, log, "new object must not tick in the pass that created it")
	assert.Equal(t, 2, s.Len())

	spawner.onTick = nil
	log = nil
	s.Tick(1)
	assert.Equal(t, []string{"spawner", "spawned"}, log)
}

func TestRemoveDuringTickLeavesTombstone(t *testing.T) {
	var log []string
	s := NewScheduler()
	victim := &probe{name: "victim", log: &log}
	killer := &probe{name: "killer", log: &log}
	killer.onTick = func() {
		s.Remove(victim)
		s.Remove(killer)
	}
	s.Add(killer)
	s.Add(victim)

	s.Tick(1)
	assert.Equal(t, []string{"killer"}, log)
	assert.Equal(t, 0, s.Len())
	require.Empty(t, s.entries, "tombstones are compacted after the pass")
}

func TestRemovePending(t *testing.T) {
	var log []string
	s := NewScheduler()
	ghost := &probe{name: "ghost", log: &log}
	host := &probe{name: "host", log: &log}
	host.onTick = func() {
		s.Add(ghost)
		s.Remove(ghost)
	}
	s.Add(host)

	s.Tick(1)
	host.onTick = nil
	s.Tick(1)
	assert.Equal(t, []string{"host", "host"}, log)
	assert.False(t, s.Contains(ghost))
}

func TestDuplicateAddIgnored(t *testing.T) {
	var log []string
	s := NewScheduler()
	p := &probe{name: "p", log: &log}
	s.Add(p)
	s.Add(p)
	s.Tick(1)
	assert.Equal(t, []string{"p"}, log)
}

func TestReentrantTickPanics(t *testing.T) {
	s := NewScheduler()
	var log []string
	p := &probe{name: "p", log: &log}
	p.onTick = func() { s.Tick(1) }
	s.Add(p)
	assert.Panics(t, func() { s.Tick(1) })
}

func TestPanicDuringTickEndsPass(t *testing.T) {
	var log []string
	s := NewScheduler()
	spawned := &probe{name: "spawned", log: &log}
	faulty := &probe{name: "faulty", log: &log}
	faulty.onTick = func() {
		s.Add(spawned)
		panic("boom")
	}
	s.Add(faulty)

	assert.Panics(t, func() { s.Tick(1) })
	assert.False(t, s.Ticking())

	faulty.onTick = nil
	log = nil
	assert.NotPanics(t, func() { s.Tick(1) })
	assert.Equal(t, []string{"faulty", "spawned"}, log, "queued objects join after a failed pass")
}
