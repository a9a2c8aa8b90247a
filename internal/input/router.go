package input

import "slices"

// Receiver gets key events from a Router.
type Receiver interface {
	HandleKeyPressed(k Key)
	HandleKeyReleased(k Key)
	// HandleKeyTrigger runs once per frame for every held key.
	HandleKeyTrigger(k Key, dt float64)
}

// NopReceiver implements Receiver with no-ops. Embed it to override a subset.
type NopReceiver struct{}

func (NopReceiver) HandleKeyPressed(Key)          {}
func (NopReceiver) HandleKeyReleased(Key)         {}
func (NopReceiver) HandleKeyTrigger(Key, float64) {}

// Router fans key events out to registered receivers.
type Router struct {
	receivers []Receiver
}

// Add registers r. Adding twice is a no-op.
func (rt *Router) Add(r Receiver) {
	if !slices.Contains(rt.receivers, r) {
		rt.receivers = append(rt.receivers, r)
	}
}

// Remove unregisters r.
func (rt *Router) Remove(r Receiver) {
	rt.receivers = slices.DeleteFunc(rt.receivers, func(x Receiver) bool { return x == r })
}

// Len returns the number of registered receivers.
func (rt *Router) Len() int {
	return len(rt.receivers)
}

// Dispatch delivers releases, then presses, then held-key triggers.
// Receivers added or removed by a handler take effect on the next Dispatch.
func (rt *Router) Dispatch(in Input, dt float64) {
	receivers := slices.Clone(rt.receivers)
	for _, r := range receivers {
		for _, k := range in.Released {
			r.HandleKeyReleased(k)
		}
	}
	for _, r := range receivers {
		for _, k := range in.Pressed {
			r.HandleKeyPressed(k)
		}
	}
	for _, r := range receivers {
		for _, k := range in.Held {
			r.HandleKeyTrigger(k, dt)
		}
	}
}
