package hostsfile

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	Whitespace TokenType = iota
	Address
	HostName
	Comment
)

func (t TokenType) String() string {
	switch t {
	case Whitespace:
		return "Whitespace"
	case Address:
		return "Address"
	case HostName:
		return "HostName"
	case Comment:
		return "Comment"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is the smallest unit of hosts file text. Value holds the exact
// source bytes, including line breaks for Whitespace tokens.
type Token struct {
	Type  TokenType
	Value string

	// inserted marks line breaks added by the document itself, so that
	// removing the last entry can take them back out.
	inserted bool
}

var visibleWhitespace = strings.NewReplacer("\r", "←", "\n", "↓", " ", "·", "\t", "→")

// String returns a debug form with whitespace made visible.
func (t Token) String() string {
	return fmt.Sprintf("[%s] = %q", t.Type, visibleWhitespace.Replace(t.Value))
}
