package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNewlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "already lf", in: "text: hi\nimage: cat.png\n", want: "text: hi\nimage: cat.png\n"},
		{name: "crlf", in: "text: hi\r\nimage: cat.png\r\n", want: "text: hi\nimage: cat.png\n"},
		{name: "lone cr", in: "text: hi\rimage: cat.png", want: "text: hi\nimage: cat.png"},
		{name: "mixed", in: "a\r\nb\rc\nd", want: "a\nb\nc\nd"},
		{name: "no newlines", in: "text: hi", want: "text: hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNewlines(tt.in))
		})
	}
}
