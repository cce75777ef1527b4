package modem

import (
	"fmt"
	"io"
)

// mirror echoes engine traffic to a diagnostic sink. A nil *mirror is valid
// and discards everything. Write errors are ignored.
type mirror struct {
	w io.Writer
}

func newMirror(w io.Writer) *mirror {
	if w == nil {
		return nil
	}
	return &mirror{w: w}
}

// render appends b to dst, spelling bytes outside 33..126 as "(HEX)".
func render(dst []byte, b byte) []byte {
	if b > 32 && b < 127 {
		return append(dst, b)
	}
	return fmt.Appendf(dst, "(%X)", b)
}

// command mirrors an outgoing line framed in brackets.
func (m *mirror) command(line []byte) {
	if m == nil {
		return
	}
	out := []byte{'['}
	for _, b := range line {
		out = render(out, b)
	}
	out = append(out, ']')
	m.w.Write(out)
}

// received mirrors one incoming byte.
func (m *mirror) received(b byte) {
	if m == nil {
		return
	}
	m.w.Write(render(nil, b))
}
