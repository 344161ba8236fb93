package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorFormat(t *testing.T) {
	tests := []struct {
		name   string
		cursor Cursor
		want   Coordinate
	}{
		{
			name:   "single digit values padded",
			cursor: Cursor{Book: 1, Page: 7, Term: 9},
			want:   Coordinate{Book: "UE-1", Page: "07", Term: "09"},
		},
		{
			name:   "three digit values kept intact",
			cursor: Cursor{Book: 2, Page: 300, Term: 4217},
			want:   Coordinate{Book: "UE-2", Page: "300", Term: "4217"},
		},
		{
			name:   "exactly two digits unchanged",
			cursor: Cursor{Book: 12, Page: 42, Term: 42},
			want:   Coordinate{Book: "UE-12", Page: "42", Term: "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cursor.Format())
		})
	}
}
