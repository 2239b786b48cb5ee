package core

import "sort"

// Registry maps room names to rooms. It is owned by a single Hub and is not
// safe for concurrent use; the hub loop serializes every access.
type Registry struct {
	rooms map[string]*Room
}

// RoomInfo is a read-only view of one room.
type RoomInfo struct {
	Name    string
	Members []ClientID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Room returns the named room if it exists.
func (g *Registry) Room(name string) (*Room, bool) {
	r, ok := g.rooms[name]
	return r, ok
}

// Join places s in the named room, creating the room on first use.
// peers lists the other members in join order, and added is false when s was
// already a member. s must not belong to a different room.
func (g *Registry) Join(s *Session, name string) (room *Room, peers []ClientID, added bool) {
	room, ok := g.rooms[name]
	if !ok {
		room = NewRoom(name)
		g.rooms[name] = room
	}
	added = room.AddClient(s)
	s.room = name

	peers = make([]ClientID, 0, room.Len())
	for _, id := range room.order {
		if id != s.ID {
			peers = append(peers, id)
		}
	}
	return room, peers, added
}

// Leave removes s from its current room and clears its membership.
// It returns the room left (nil when s was in none) and whether that room was
// dropped from the registry because it became empty.
func (g *Registry) Leave(s *Session) (room *Room, dropped bool) {
	if s.room == "" {
		return nil, false
	}
	room, ok := g.rooms[s.room]
	s.room = ""
	if !ok {
		return nil, false
	}
	room.RemoveClient(s.ID)
	if room.Empty() {
		delete(g.rooms, room.Name)
		dropped = true
	}
	return room, dropped
}

// CurrentRoom returns the room s belongs to, if any.
func (g *Registry) CurrentRoom(s *Session) (*Room, bool) {
	if s.room == "" {
		return nil, false
	}
	return g.Room(s.room)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	return len(g.rooms)
}

// Snapshot lists every room sorted by name.
func (g *Registry) Snapshot() []RoomInfo {
	out := make([]RoomInfo, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, RoomInfo{Name: r.Name, Members: r.Members()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
