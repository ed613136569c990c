package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain events.
type EventType string

const (
	EventBoardCreated       EventType = "board_created"
	EventBoardDeleted       EventType = "board_deleted"
	EventParticipantAdded   EventType = "participant_added"
	EventParticipantRemoved EventType = "participant_removed"
	EventWinRecorded        EventType = "win_recorded"
)

// AllEventTypes lists every event the ranking service emits.
var AllEventTypes = []EventType{
	EventBoardCreated,
	EventBoardDeleted,
	EventParticipantAdded,
	EventParticipantRemoved,
	EventWinRecorded,
}

// Event represents an immutable domain event.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	Time        time.Time   `json:"time"`
	Board       BoardName   `json:"board"`
	Participant Participant `json:"participant,omitempty"`
	Loser       Participant `json:"loser,omitempty"`
	// Position is the winner's 1-indexed position after a win.
	Position int            `json:"position,omitempty"`
	Moved    bool           `json:"moved,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func newEvent(typ EventType, board BoardName) Event {
	return Event{ID: uuid.NewString(), Type: typ, Time: time.Now().UTC(), Board: board}
}

func NewBoardCreated(board BoardName, creator Participant) Event {
	ev := newEvent(EventBoardCreated, board)
	ev.Participant = creator
	return ev
}

func NewBoardDeleted(board BoardName) Event {
	return newEvent(EventBoardDeleted, board)
}

func NewParticipantAdded(board BoardName, p Participant) Event {
	ev := newEvent(EventParticipantAdded, board)
	ev.Participant = p
	return ev
}

func NewParticipantRemoved(board BoardName, p Participant) Event {
	ev := newEvent(EventParticipantRemoved, board)
	ev.Participant = p
	return ev
}

// NewWinRecorded describes a win. moved is false when the winner defended.
func NewWinRecorded(board BoardName, winner, loser Participant, position int, moved bool) Event {
	ev := newEvent(EventWinRecorded, board)
	ev.Participant = winner
	ev.Loser = loser
	ev.Position = position
	ev.Moved = moved
	return ev
}
