package core

import (
	"errors"
	"math"
	"strings"
	"unicode"
)

// BoardName uniquely identifies a ranking board.
type BoardName string

// Participant names a member of a board.
type Participant string

// DefaultRegistryKey is the store key holding the set of known boards. It is
// also the one board name that can never be created.
const DefaultRegistryKey = "leaderboards"

// Score bounds used for full-range reads of an ordered set.
const (
	MinScore int64 = math.MinInt64
	MaxScore int64 = math.MaxInt64
)

// Entry is one element of an ordered set: a member and its rank-score.
type Entry struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// Standing is a single display row of a board. Position is 1-indexed.
type Standing struct {
	Position int         `json:"position"`
	Name     Participant `json:"name"`
}

// Outcome is the result of a ranking operation. Business failures are
// reported with Success=false and Err set to one of the taxonomy errors;
// Message is always a pre-formatted human readable string.
type Outcome struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Err       error       `json:"-"`
	Position  int         `json:"position,omitempty"`
	Standings []Standing  `json:"standings,omitempty"`
	Boards    []BoardName `json:"boards,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(msg string) Outcome { return Outcome{Success: true, Message: msg} }

// Failed builds a business failure outcome.
func Failed(err error, msg string) Outcome { return Outcome{Success: false, Message: msg, Err: err} }

// NormalizeBoardName trims the board name and rejects empty or
// whitespace-containing names.
func NormalizeBoardName(b BoardName) (BoardName, error) {
	s, err := normalizeName(string(b))
	if err != nil {
		return "", err
	}
	return BoardName(s), nil
}

// NormalizeParticipant applies the board name rules to a participant name.
func NormalizeParticipant(p Participant) (Participant, error) {
	s, err := normalizeName(string(p))
	if err != nil {
		return "", err
	}
	return Participant(s), nil
}

func normalizeName(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("empty name")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", errors.New("name must not contain whitespace")
	}
	return s, nil
}
