package core

// Room groups the sessions that joined the same name.
type Room struct {
	Name    string
	members map[ClientID]*Session
	order   []ClientID
}

// NewRoom constructs a room with no members.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[ClientID]*Session),
	}
}

// AddClient inserts a session into the room. Returns true if newly added.
func (r *Room) AddClient(s *Session) bool {
	if _, exists := r.members[s.ID]; exists {
		return false
	}
	r.members[s.ID] = s
	r.order = append(r.order, s.ID)
	return true
}

// RemoveClient deletes a member from the room. Returns true if removed.
func (r *Room) RemoveClient(id ClientID) bool {
	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	for i, member := range r.order {
		if member == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Member looks up a session by id.
func (r *Room) Member(id ClientID) (*Session, bool) {
	s, ok := r.members[id]
	return s, ok
}

// Members returns member ids in join order.
func (r *Room) Members() []ClientID {
	ids := make([]ClientID, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.members)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}
