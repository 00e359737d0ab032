package models

// LoopDetect folds periodic runs of values, up to max entries long. The
// block tracer feeds it one key per block entry so a spinning loop prints
// once with a repeat count.
type LoopDetect[T comparable] struct {
	max int
	// recent values seen outside a loop, oldest first, at most 2*max
	hist []T

	body  []T
	pos   int
	count int
}

func NewLoopDetect[T comparable](max int) *LoopDetect[T] {
	return &LoopDetect[T]{max: max, hist: make([]T, 0, max*2)}
}

// Update feeds the next value. It reports whether v continues a loop, the
// loop body, and how many passes have been seen. When a loop breaks, the
// finished body and count are returned with false and v is not consumed
// into history.
func (l *LoopDetect[T]) Update(v T) (bool, []T, int) {
	if l.body != nil {
		if l.body[l.pos] == v {
			if l.pos == 0 {
				l.count++
			}
			l.pos = (l.pos + 1) % len(l.body)
			return true, l.body, l.count
		}
		body, count := l.body, l.count
		l.body, l.pos, l.count = nil, 0, 0
		return false, body, count
	}
	if len(l.hist) == cap(l.hist) {
		copy(l.hist, l.hist[1:])
		l.hist = l.hist[:len(l.hist)-1]
	}
	l.hist = append(l.hist, v)
	if n := l.period(); n > 0 {
		l.body = append([]T(nil), l.hist[len(l.hist)-n:]...)
		l.count = 1
		return true, l.body, l.count
	}
	return false, nil, 0
}

// period is the shortest n where the last n values repeat the n before them
func (l *LoopDetect[T]) period() int {
	h := l.hist
	for n := 1; n <= l.max && n*2 <= len(h); n++ {
		a, b := h[len(h)-n:], h[len(h)-2*n:len(h)-n]
		same := true
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
		if same {
			return n
		}
	}
	return 0
}

// Looping returns the open loop's body and pass count, if any.
func (l *LoopDetect[T]) Looping() ([]T, int) {
	return l.body, l.count
}
