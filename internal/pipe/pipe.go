// Package pipe provides the unbounded single-consumer queue that sits between
// background producers and the consumer goroutine.
package pipe

// Unbounded relays every value from in to the returned channel in order,
// buffering as needed so producers never block on a slow consumer. The
// returned channel is closed after in is closed and fully delivered.
//
// The buffer is owned by the relay goroutine alone.
func Unbounded[T any](in <-chan T) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		var buf []T
		for in != nil || len(buf) > 0 {
			var send chan<- T
			var next T
			if len(buf) > 0 {
				send = out
				next = buf[0]
			}

			select {
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				buf = append(buf, v)
			case send <- next:
				var zero T
				buf[0] = zero
				buf = buf[1:]
			}
		}
	}()

	return out
}
