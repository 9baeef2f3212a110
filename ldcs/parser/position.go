package parser

// Position represents a line/column position in command text
// Uses LSP conventions: 1-based line numbers, 0-based character offsets
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based character offset within line
	Offset    int `json:"offset"`    // 0-based byte offset in entire source
}

// Range represents a source span from start to end position
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// PositionTracker maintains line/column/offset state during tokenization
type PositionTracker struct {
	source    string
	line      int
	character int
	offset    int
}

// NewPositionTracker creates a tracker starting at beginning of source
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{
		source: source,
		line:   1,
	}
}

// AdvanceBytes advances by n bytes, counting newlines
func (pt *PositionTracker) AdvanceBytes(n int) {
	for i := 0; i < n && pt.offset < len(pt.source); i++ {
		if pt.source[pt.offset] == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
		pt.offset++
	}
}

// Mark returns the current position snapshot
func (pt *PositionTracker) Mark() Position {
	return Position{
		Line:      pt.line,
		Character: pt.character,
		Offset:    pt.offset,
	}
}
