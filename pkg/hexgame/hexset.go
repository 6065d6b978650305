package hexgame

// hexSet is an insertion-ordered set of hexes. Iteration order is
// deterministic, which keeps undo and town selection reproducible.
type hexSet struct {
	order []*Hex
	pos   map[*Hex]int
}

func newHexSet(hexes ...*Hex) *hexSet {
	s := &hexSet{pos: make(map[*Hex]int, len(hexes))}
	for _, h := range hexes {
		s.add(h)
	}
	return s
}

func (s *hexSet) add(h *Hex) {
	if _, ok := s.pos[h]; ok {
		return
	}
	s.pos[h] = len(s.order)
	s.order = append(s.order, h)
}

func (s *hexSet) remove(h *Hex) {
	i, ok := s.pos[h]
	if !ok {
		return
	}
	delete(s.pos, h)
	copy(s.order[i:], s.order[i+1:])
	s.order = s.order[:len(s.order)-1]
	for j := i; j < len(s.order); j++ {
		s.pos[s.order[j]] = j
	}
}

func (s *hexSet) has(h *Hex) bool {
	_, ok := s.pos[h]
	return ok
}

func (s *hexSet) len() int { return len(s.order) }

func (s *hexSet) slice() []*Hex {
	return append([]*Hex(nil), s.order...)
}

func (s *hexSet) clone() *hexSet {
	return newHexSet(s.order...)
}
