package core

import (
	"fmt"
	"strings"
)

// Outcome messages use chat markup: *bold* names and '>' quoted rows.

// MsgCreated confirms a new board.
func MsgCreated(b BoardName) string { return fmt.Sprintf("Created leaderboard: *%s*!", b) }

// MsgDeleted confirms a board was removed.
func MsgDeleted(b BoardName) string { return fmt.Sprintf("Deleted leaderboard: *%s*!", b) }

// MsgAlreadyExists rejects creating a board that is already registered.
func MsgAlreadyExists(b BoardName) string {
	return fmt.Sprintf("Whoops, *%s* leaderboard already exists.", b)
}

// MsgReserved rejects the registry key used as a board name.
func MsgReserved(b BoardName) string {
	return fmt.Sprintf("Whoops, *%s* is a reserved key word.", b)
}

// MsgNotFound reports an unknown board.
func MsgNotFound(b BoardName) string {
	return fmt.Sprintf("Whoops, *%s* leaderboard does not exist.", b)
}

// MsgInvalidName rejects an empty or whitespace-containing name.
func MsgInvalidName(name string) string {
	return fmt.Sprintf("Whoops, *%s* is not a valid name.", name)
}

// MsgAdded confirms a participant joined a board.
func MsgAdded(b BoardName, p Participant) string {
	return fmt.Sprintf("Added *%s* to leaderboard *%s*!", p, b)
}

// MsgAlreadyMember rejects adding a participant twice.
func MsgAlreadyMember(b BoardName, p Participant) string {
	return fmt.Sprintf("Whoops, *%s* is already in leaderboard *%s*.", p, b)
}

// MsgRemoved confirms a participant left a board.
func MsgRemoved(b BoardName, p Participant) string {
	return fmt.Sprintf("Removed *%s* from leaderboard *%s*!", p, b)
}

// MsgNotMember reports a participant missing from a board.
func MsgNotMember(b BoardName, p Participant) string {
	return fmt.Sprintf("Whoops, *%s* is not in leaderboard *%s*.", p, b)
}

// MsgNotBothMembers reports a win where winner or loser is missing.
func MsgNotBothMembers(b BoardName, winner, loser Participant) string {
	return fmt.Sprintf("Whoops, one or both of *%s* and *%s* are not in leaderboard *%s*.", winner, loser, b)
}

// MsgTook reports a winner moving into the loser's former position.
func MsgTook(b BoardName, winner, loser Participant, position int) string {
	return fmt.Sprintf("*%s* took position number %d from *%s* in *%s*!", winner, position, loser, b)
}

// MsgDefended reports a winner that was already ranked above the loser.
func MsgDefended(b BoardName, winner, loser Participant, position int) string {
	return fmt.Sprintf("*%s* defended position number %d against *%s* in *%s*!", winner, position, loser, b)
}

// RenderBoard formats standings as a quoted list under a bold title.
func RenderBoard(b BoardName, standings []Standing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s leaderboard:*\n", b)
	for _, s := range standings {
		fmt.Fprintf(&sb, ">%d) %s\n", s.Position, s.Name)
	}
	return sb.String()
}

// RenderBoardList formats the list of all known boards.
func RenderBoardList(boards []BoardName) string {
	var sb strings.Builder
	sb.WriteString("*All leaderboards:*\n")
	for _, b := range boards {
		fmt.Fprintf(&sb, ">%s\n", b)
	}
	return sb.String()
}
