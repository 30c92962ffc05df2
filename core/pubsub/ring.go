package pubsub

// ring is a fixed-capacity buffer that overwrites its oldest element when full.
// It is not safe for concurrent use; Topic guards it with its own mutex.
type ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	size int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v and reports the evicted element, if any.
func (r *ring[T]) push(v T) (evicted T, ok bool) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return evicted, false
	}

	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	return evicted, true
}

// last returns up to n most recent elements, oldest first.
func (r *ring[T]) last(n int) []T {
	if n <= 0 || r.size == 0 {
		return nil
	}
	if n > r.size {
		n = r.size
	}

	out := make([]T, n)
	start := r.head + r.size - n
	for i := range n {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

func (r *ring[T]) count() int { return r.size }

func (r *ring[T]) capacity() int { return len(r.buf) }
