package tictactoe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPosition = errors.New("invalid position")

// Position is one of the nine named squares on the board. Positions travel
// over the wire by name, not by bare index, so that the protocol form and
// any human-facing rendering stay aligned.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	MiddleLeft   Position = "middle-left"
	Center       Position = "center"
	MiddleRight  Position = "middle-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

// AllPositions - every position in board order (index 0 through 8).
var AllPositions = [9]Position{
	TopLeft, TopCenter, TopRight,
	MiddleLeft, Center, MiddleRight,
	BottomLeft, BottomCenter, BottomRight,
}

var positionIndexes = map[Position]int{
	TopLeft: 0, TopCenter: 1, TopRight: 2,
	MiddleLeft: 3, Center: 4, MiddleRight: 5,
	BottomLeft: 6, BottomCenter: 7, BottomRight: 8,
}

// Index - converts the position to its board index (0-8).
func (that Position) Index() int {
	return positionIndexes[that]
}

// IsValid - reports whether the position is one of the nine named squares.
func (that Position) IsValid() bool {
	_, ok := positionIndexes[that]
	return ok
}

// PositionFromIndex - converts a board index (0-8) back to its position.
// It is the inverse of Position.Index for all nine values.
func PositionFromIndex(index int) (Position, error) {
	if index < 0 || index >= len(AllPositions) {
		return "", fmt.Errorf("%w: index %d", ErrInvalidPosition, index)
	}

	return AllPositions[index], nil
}

// ParsePosition - parses a position from its symbolic name or a bare index
// string. Decision sources sometimes answer with the index alone.
func ParsePosition(raw string) (Position, error) {
	trimmed := strings.TrimSpace(raw)

	if index, err := strconv.Atoi(trimmed); err == nil {
		return PositionFromIndex(index)
	}

	candidate := Position(strings.ToLower(trimmed))
	if candidate.IsValid() {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidPosition, raw)
}
