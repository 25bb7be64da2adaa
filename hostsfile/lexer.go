package hostsfile

import "iter"

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Tokenize scans text left to right and yields its tokens. The first word
// of a line position is an Address, the word after an Address is a
// HostName, and '#' starts a Comment running to the end of the line.
// Nothing is validated: any text tokenizes.
//
// The returned sequence re-scans text each time it is ranged over.
func Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l := lexer{text: text, yield: yield}
		l.run()
	}
}

// Lex returns all tokens of text.
func Lex(text string) []Token {
	var tokens []Token
	for tok := range Tokenize(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

type lexer struct {
	text  string
	yield func(Token) bool

	state      TokenType
	start      int
	gotAddress bool
	stopped    bool
}

// emit yields text[l.start:end] as a token of type t and moves start to end.
func (l *lexer) emit(t TokenType, end int) {
	if l.stopped || end <= l.start {
		return
	}
	if !l.yield(Token{Type: t, Value: l.text[l.start:end]}) {
		l.stopped = true
	}
	l.start = end
}

// commentEnd excludes a carriage return in front of a line feed (or at the
// end of input) so it stays with the following whitespace.
func (l *lexer) commentEnd(end int) int {
	if end > l.start && l.text[end-1] == '\r' {
		return end - 1
	}
	return end
}

func (l *lexer) run() {
	for i := 0; i < len(l.text) && !l.stopped; i++ {
		c := l.text[i]
		if isSeparator(c) {
			switch l.state {
			case Address:
				l.emit(Address, i)
				l.state = Whitespace
				l.gotAddress = true
			case HostName:
				l.emit(HostName, i)
				l.state = Whitespace
				l.gotAddress = false
			case Comment:
				if c == '\n' {
					l.emit(Comment, l.commentEnd(i))
					l.state = Whitespace
				}
			}
			continue
		}
		if l.state != Whitespace {
			continue
		}
		l.emit(Whitespace, i)
		switch {
		case c == '#':
			l.state = Comment
		case !l.gotAddress:
			l.state = Address
		default:
			l.state = HostName
		}
	}

	end := len(l.text)
	if l.state == Comment {
		l.emit(Comment, l.commentEnd(end))
	} else if l.state != Whitespace {
		l.emit(l.state, end)
	}
	l.emit(Whitespace, end)
}
