package core

// Snapshot is a copy of a Runtime's state suitable for persistence.
//
// Only the allocated prefix of the arena is kept.
type Snapshot struct {
	Words []Word `json:"words"`
	Size  int    `json:"size"`
	Pos   Offset `json:"pos"`
	State State  `json:"state"`
	Ret   Offset `json:"ret"`
}

// Snapshot copies the Runtime's state.
func (rt *Runtime) Snapshot() *Snapshot {
	ws := make([]Word, rt.cursor)
	copy(ws, rt.raw)
	return &Snapshot{
		Words: ws,
		Size:  len(rt.raw),
		Pos:   rt.pos,
		State: rt.state,
		Ret:   rt.ret,
	}
}

// Restore replaces the Runtime's state with the Snapshot, using the
// given block as the arena.  If block is nil, a block of the
// Snapshot's Size is made.  If the block is too small for the
// Snapshot's Words, the result is MemLow and nothing changes.
func (rt *Runtime) Restore(s *Snapshot, block []Word) Result {
	if block == nil {
		size := s.Size
		if size < len(s.Words) {
			size = len(s.Words)
		}
		block = make([]Word, size)
	}
	if len(block) < len(s.Words) {
		return memLow(len(s.Words) - len(block))
	}
	copy(block, s.Words)
	*rt = Runtime{
		raw:    block[:len(block):len(block)],
		cursor: len(s.Words),
		pos:    s.Pos,
		state:  s.State,
		ret:    s.Ret,
	}
	return Result{Kind: OK, Data: len(block)}
}
