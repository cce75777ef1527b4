package at

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrUnexpectedParams is returned when a Get or Help command carries parameters.
var ErrUnexpectedParams = errors.New("parameters not allowed for this action")

// Command is a single line sent to the module. An empty Name encodes the bare
// probe "AT".
type Command struct {
	Name   string
	Action Action
	Params []string
}

// Encode returns the wire form of the command:
//
//	AT[+NAME[glyph][p1[:p2...]]]<CR>
//
// Each parameter is written up to its first NUL byte. With an empty Name the
// action and parameters are ignored.
func (c Command) Encode() ([]byte, error) {
	if c.Name != "" && len(c.Params) > 0 && (c.Action == Get || c.Action == Help) {
		return nil, fmt.Errorf("%s: %w", c.Name, ErrUnexpectedParams)
	}

	var buf bytes.Buffer
	buf.WriteString(Prefix)
	if c.Name != "" {
		buf.WriteByte(Plus)
		buf.WriteString(c.Name)
		buf.WriteString(c.Action.glyph())
		for i, p := range c.Params {
			if i > 0 {
				buf.WriteByte(Separator)
			}
			buf.WriteString(Terminated(p))
		}
	}
	buf.WriteByte(CR)
	return buf.Bytes(), nil
}

func (c Command) String() string {
	if c.Name == "" {
		return Prefix
	}
	return Prefix + string(Plus) + c.Name + c.Action.glyph()
}
