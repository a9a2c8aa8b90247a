package input

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeys(t *testing.T) {
	keys := ParseKeys([]byte("aD \x1b[A\x1b[D\r\x1bx\x7f\x03"))
	assert.Equal(t, []Key{
		Key('a'), Key('d'), KeySpace, KeyUp, KeyLeft, KeyEnter, KeyEscape, Key('x'), KeyBackspace, KeyInterrupt,
	}, keys)
}

func TestKeyEdges(t *testing.T) {
	s := newStream(100 * time.Millisecond)
	t0 := time.Unix(0, 0)

	in := s.apply([]Key{Key('a')}, t0)
	assert.Equal(t, []Key{Key('a')}, in.Pressed)
	assert.Equal(t, []Key{Key('a')}, in.Held)
	assert.Empty(t, in.Released)

	// Repeats keep the key down without another edge.
	in = s.apply([]Key{Key('a')}, t0.Add(80*time.Millisecond))
	assert.Empty(t, in.Pressed)
	assert.True(t, in.IsHeld(Key('a')))

	in = s.apply([]Key{KeyRight}, t0.Add(150*time.Millisecond))
	assert.True(t, in.WasPressed(KeyRight))
	assert.Equal(t, []Key{Key('a'), KeyRight}, in.Held)

	in = s.apply(nil, t0.Add(181*time.Millisecond))
	assert.Equal(t, []Key{Key('a')}, in.Released)
	assert.Equal(t, []Key{KeyRight}, in.Held)

	in = s.apply(nil, t0.Add(300*time.Millisecond))
	assert.Equal(t, []Key{KeyRight}, in.Released)
	assert.Empty(t, in.Held)
}

func TestQuitKeys(t *testing.T) {
	s := newStream(0)
	assert.True(t, s.apply([]Key{Key('q')}, time.Now()).Quit)
	assert.True(t, s.apply([]Key{KeyInterrupt}, time.Now()).Quit)
	assert.False(t, s.apply([]Key{Key('w')}, time.Now()).Quit)
}

func TestReadInputEndOfStream(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("d")), time.Second)

	var pressed []Key
	require.Eventually(t, func() bool {
		in := ReadInput(s)
		pressed = append(pressed, in.Pressed...)
		return in.Quit
	}, time.Second, time.Millisecond)
	assert.Contains(t, pressed, Key('d'))

	// A closed stream keeps reporting quit without blocking.
	assert.True(t, ReadInput(s).Quit)
}

func TestReset(t *testing.T) {
	s := newStream(time.Second)
	s.apply([]Key{Key('a')}, time.Now())
	s.Reset()
	in := s.apply(nil, time.Now())
	assert.Empty(t, in.Held)
	assert.Empty(t, in.Released)
}

type recorder struct {
	NopReceiver
	events []string
}

func (r *recorder) HandleKeyPressed(k Key)  { r.events = append(r.events, "+"+k.String()) }
func (r *recorder) HandleKeyReleased(k Key) { r.events = append(r.events, "-"+k.String()) }
func (r *recorder) HandleKeyTrigger(k Key, _ float64) {
	r.events = append(r.events, "*"+k.String())
}

func TestRouterDispatchOrder(t *testing.T) {
	var rt Router
	a, b := &recorder{}, &recorder{}
	rt.Add(a)
	rt.Add(b)
	rt.Add(a)
	require.Equal(t, 2, rt.Len())

	rt.Dispatch(Input{
		Pressed:  []Key{KeyLeft},
		Released: []Key{Key('d')},
		Held:     []Key{KeyLeft},
	}, 0.016)
	assert.Equal(t, []string{"-d", "+left", "*left"}, a.events)
	assert.Equal(t, a.events, b.events)

	rt.Remove(a)
	rt.Dispatch(Input{Pressed: []Key{KeyEnter}}, 0.016)
	assert.Len(t, a.events, 3)
	assert.Equal(t, "+enter", b.events[3])
}

type selfRemover struct {
	NopReceiver
	router *Router
	calls  int
}

func (s *selfRemover) HandleKeyPressed(Key) {
	s.calls++
	s.router.Remove(s)
}

func TestRouterRemoveDuringDispatch(t *testing.T) {
	var rt Router
	s := &selfRemover{router: &rt}
	other := &recorder{}
	rt.Add(s)
	rt.Add(other)

	rt.Dispatch(Input{Pressed: []Key{Key('x'), Key('y')}}, 0)
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, []string{"+x", "+y"}, other.events)
	assert.Equal(t, 1, rt.Len())
}
