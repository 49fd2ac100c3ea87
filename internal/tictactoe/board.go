package tictactoe

import "strings"

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptySquare = ""
)

// Player is one of the two marks. X always moves first.
type Player string

// Opponent - returns the other player.
func (that Player) Opponent() Player {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Square is either empty or holds the mark of the player who filled it.
type Square string

// WinLines - the eight fixed three-square lines: 3 rows, 3 columns,
// 2 diagonals.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is the fixed 9-square grid, indexed by Position.
type Board [9]Square

// Get - returns the square at the given position.
func (that *Board) Get(position Position) Square {
	return that[position.Index()]
}

// Set - fills the square at the given position.
func (that *Board) Set(position Position, square Square) {
	that[position.Index()] = square
}

// IsEmpty - reports whether the square at the given position is unoccupied.
func (that *Board) IsEmpty(position Position) bool {
	return that[position.Index()] == EmptySquare
}

// IsFull - reports whether every square is occupied.
func (that *Board) IsFull() bool {
	for _, square := range that {
		if square == EmptySquare {
			return false
		}
	}

	return true
}

// OccupiedCount - the number of occupied squares.
func (that *Board) OccupiedCount() int {
	count := 0
	for _, square := range that {
		if square != EmptySquare {
			count++
		}
	}

	return count
}

// Winner - returns the player holding a complete line, if any. A line wins
// when all three squares are occupied by the same mark.
func (that *Board) Winner() (Player, bool) {
	for _, line := range WinLines {
		a, b, c := that[line[0]], that[line[1]], that[line[2]]
		if a != EmptySquare && a == b && b == c {
			return Player(a), true
		}
	}

	return "", false
}

// EmptyPositions - the positions of all unoccupied squares, in board order.
// This is the walled-garden candidate set for move elicitation.
func (that *Board) EmptyPositions() []Position {
	positions := make([]Position, 0, len(AllPositions))
	for _, position := range AllPositions {
		if that.IsEmpty(position) {
			positions = append(positions, position)
		}
	}

	return positions
}

// Render - renders the board as text. Empty squares show their one-based
// index so a decision source can answer by number.
func (that *Board) Render() string {
	var builder strings.Builder

	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			index := row*3 + col
			switch square := that[index]; square {
			case EmptySquare:
				builder.WriteString(string(rune('1' + index)))
			default:
				builder.WriteString(string(square))
			}

			if col < 2 {
				builder.WriteByte('|')
			}
		}

		if row < 2 {
			builder.WriteString("\n-+-+-\n")
		}
	}

	return builder.String()
}
