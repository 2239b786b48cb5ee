package core

// deliver pushes ev onto the session queue without blocking. It reports false
// when the session is closing or its queue is full; the event is then dropped.
func deliver(s *Session, ev *Event) bool {
	if !s.Writable() {
		return false
	}
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}

// broadcast delivers ev to every member of room except exclude (0 excludes
// nobody) and returns how many recipients accepted it.
func broadcast(room *Room, ev *Event, exclude ClientID) int {
	sent := 0
	for _, id := range room.order {
		if id == exclude {
			continue
		}
		if deliver(room.members[id], ev) {
			sent++
		}
	}
	return sent
}

// sendTo delivers ev to one member of room. Unknown targets are skipped.
func sendTo(room *Room, target ClientID, ev *Event) bool {
	s, ok := room.Member(target)
	if !ok {
		return false
	}
	return deliver(s, ev)
}
