package ball

// Signal is a multicast notification with explicit subscriptions.
// It is not safe for concurrent use; all calls happen on the main loop.
type Signal struct {
	next uint64
	subs []subscriber
}

type subscriber struct {
	id uint64
	fn func()
}

// Subscribe adds fn and returns a func that removes it. Calling the cancel
// func more than once is harmless.
func (s *Signal) Subscribe(fn func()) (cancel func()) {
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *Signal) remove(id uint64) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (s *Signal) Len() int {
	return len(s.subs)
}

// Emit calls every subscriber in subscription order. Subscribers added or
// removed during Emit take effect on the next Emit.
func (s *Signal) Emit() {
	subs := append([]subscriber(nil), s.subs...)
	for _, sub := range subs {
		sub.fn()
	}
}
