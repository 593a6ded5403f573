package listsync

import "github.com/Makepad-fr/tada/internal/model"

// State is what the UI renders: the last snapshot and the unsent input.
type State struct {
	Items        []model.Item
	PendingInput string
}

func (s State) clone() State {
	out := State{PendingInput: s.PendingInput}
	if s.Items != nil {
		out.Items = make([]model.Item, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// Stats counts completed and open items.
func (s State) Stats() (done, pending int) {
	for _, it := range s.Items {
		if it.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}
