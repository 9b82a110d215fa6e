package scheduler

import "time"

type slotKey struct {
	day   time.Weekday
	start string
	date  string
}

// Tracker remembers which rooms and lecturers are committed per (day, slot start, date).
// It is scoped to one generation run and is not safe for concurrent use.
type Tracker struct {
	rooms     map[slotKey]map[string]struct{}
	lecturers map[slotKey]map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		rooms:     make(map[slotKey]map[string]struct{}),
		lecturers: make(map[slotKey]map[string]struct{}),
	}
}

func newSlotKey(day time.Weekday, slotStart string, date time.Time) slotKey {
	return slotKey{day: day, start: slotStart, date: FormatDate(date)}
}

// MarkUsed commits both resources to the slot. Empty IDs are ignored.
func (t *Tracker) MarkUsed(day time.Weekday, slotStart string, date time.Time, roomID, lecturerID string) {
	key := newSlotKey(day, slotStart, date)
	if roomID != "" {
		add(t.rooms, key, roomID)
	}
	if lecturerID != "" {
		add(t.lecturers, key, lecturerID)
	}
}

// IsRoomFree reports whether roomID is unused at the slot.
func (t *Tracker) IsRoomFree(day time.Weekday, slotStart string, date time.Time, roomID string) bool {
	_, used := t.rooms[newSlotKey(day, slotStart, date)][roomID]
	return !used
}

// IsLecturerFree reports whether lecturerID is unused at the slot.
func (t *Tracker) IsLecturerFree(day time.Weekday, slotStart string, date time.Time, lecturerID string) bool {
	_, used := t.lecturers[newSlotKey(day, slotStart, date)][lecturerID]
	return !used
}

// FreeRooms filters pool down to rooms unused at the slot, preserving order.
func (t *Tracker) FreeRooms(day time.Weekday, slotStart string, date time.Time, pool []Room) []Room {
	free := make([]Room, 0, len(pool))
	for _, room := range pool {
		if t.IsRoomFree(day, slotStart, date, room.ID) {
			free = append(free, room)
		}
	}
	return free
}

// FreeLecturers filters pool down to lecturers unused at the slot, preserving order.
func (t *Tracker) FreeLecturers(day time.Weekday, slotStart string, date time.Time, pool []Lecturer) []Lecturer {
	free := make([]Lecturer, 0, len(pool))
	for _, lecturer := range pool {
		if t.IsLecturerFree(day, slotStart, date, lecturer.ID) {
			free = append(free, lecturer)
		}
	}
	return free
}

func add(index map[slotKey]map[string]struct{}, key slotKey, id string) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[id] = struct{}{}
}
