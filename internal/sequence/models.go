package sequence

import "fmt"

// Cursor is the persisted allocation state of one numbering series. Page stays
// within the configured capacity; term grows by one per allocation and is
// never reset, not even when the book advances.
type Cursor struct {
	Book int
	Page int
	Term int64
}

// Coordinate is an issued ledger coordinate in its legal display form,
// e.g. {Book: "UE-1", Page: "07", Term: "301"}.
type Coordinate struct {
	Book string `json:"book"`
	Page string `json:"page"`
	Term string `json:"term"`
}

const bookPrefix = "UE-"

// Format renders the cursor's current position as a Coordinate. Page and term
// are zero-padded to a minimum width of two; values of 100 and above are
// rendered as-is.
func (c Cursor) Format() Coordinate {
	return Coordinate{
		Book: fmt.Sprintf("%s%d", bookPrefix, c.Book),
		Page: fmt.Sprintf("%02d", c.Page),
		Term: fmt.Sprintf("%02d", c.Term),
	}
}
