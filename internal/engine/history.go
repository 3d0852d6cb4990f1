package engine

import "time"

// Source says how a body was selected.
type Source string

const (
	SourcePick  Source = "pick"
	SourceFocus Source = "focus"
)

// Selection is one "body selected" event.
type Selection struct {
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	Source     Source    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	SimTime    float64   `json:"sim_time"`
}

// SelectionSink receives "body selected" events. It is called on the frame
// loop and must not block.
type SelectionSink interface {
	BodySelected(Selection)
}

// SelectionFunc adapts a function to SelectionSink.
type SelectionFunc func(Selection)

// BodySelected calls f(s).
func (f SelectionFunc) BodySelected(s Selection) { f(s) }

// history is a fixed-size ring of recent selections.
type history struct {
	entries []Selection
	max     int
	writeAt int
}

func newHistory(max int) history {
	if max <= 0 {
		max = 32
	}
	return history{entries: make([]Selection, 0, max), max: max}
}

func (h *history) add(s Selection) {
	if len(h.entries) < h.max {
		h.entries = append(h.entries, s)
		return
	}
	h.entries[h.writeAt] = s
	h.writeAt = (h.writeAt + 1) % h.max
}

// ordered returns entries oldest first.
func (h *history) ordered() []Selection {
	if len(h.entries) == 0 {
		return nil
	}
	out := make([]Selection, len(h.entries))
	if len(h.entries) < h.max {
		copy(out, h.entries)
		return out
	}
	for i := 0; i < h.max; i++ {
		out[i] = h.entries[(h.writeAt+i)%h.max]
	}
	return out
}

// recent returns the last n entries, oldest first.
func (h *history) recent(n int) []Selection {
	all := h.ordered()
	if n < 0 {
		n = 0
	}
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}
