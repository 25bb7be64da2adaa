package hostsfile

import (
	"io"
	"net/netip"
	"strings"
)

// Entry is one address to host name binding as it appears in a Document.
type Entry struct {
	HostName string
	Address  string
	Comment  string

	// Index is the position of the HostName token in the document.
	Index int
}

// Addr parses the entry's address.
func (e Entry) Addr() (netip.Addr, error) {
	return ParseAddress(e.Address)
}

// Document is an editable hosts file. All edits are token list edits, so
// rendering an unmodified document returns the loaded text unchanged.
type Document struct {
	tokens     []Token
	lineEnding string
	modified   bool
}

// Option configures a Document at Load time.
type Option func(*Document)

// WithLineEnding sets the line break used for lines the document adds.
func WithLineEnding(s string) Option {
	return func(d *Document) {
		d.lineEnding = s
	}
}

// Load tokenizes text into a new Document. Added lines use "\r\n" when text
// already contains one, "\n" otherwise.
func Load(text string, opts ...Option) *Document {
	d := &Document{
		tokens:     Lex(text),
		lineEnding: "\n",
	}
	if strings.Contains(text, "\r\n") {
		d.lineEnding = "\r\n"
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Read loads a Document from everything r yields.
func Read(r io.Reader, opts ...Option) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Load(string(b), opts...), nil
}

// IsModified reports whether any edit was made since Load.
func (d *Document) IsModified() bool {
	return d.modified
}

// Len returns the number of tokens.
func (d *Document) Len() int {
	return len(d.tokens)
}

// Tokens returns a copy of the token sequence.
func (d *Document) Tokens() []Token {
	out := make([]Token, len(d.tokens))
	copy(out, d.tokens)
	return out
}

// Lookup returns the address bound to hostName. The first matching entry
// wins. ok is false when there is no such entry or its address token is not
// where an entry's address belongs; err is set when the address text does
// not parse.
func (d *Document) Lookup(hostName string) (addr netip.Addr, ok bool, err error) {
	i := d.hostIndex(hostName)
	if i < 0 || !d.paired(i) {
		return netip.Addr{}, false, nil
	}
	addr, err = ParseAddress(d.tokens[i-2].Value)
	if err != nil {
		return netip.Addr{}, true, err
	}
	return addr, true, nil
}

// Exists reports whether any host name token equals hostName.
func (d *Document) Exists(hostName string) bool {
	return d.hostIndex(hostName) >= 0
}

// Entries lists every well formed entry in document order.
func (d *Document) Entries() []Entry {
	var entries []Entry
	for i, tok := range d.tokens {
		if tok.Type != HostName || !d.paired(i) {
			continue
		}
		e := Entry{
			HostName: tok.Value,
			Address:  d.tokens[i-2].Value,
			Index:    i,
		}
		for _, next := range d.tokens[i+1:] {
			if next.Type == Comment {
				e.Comment = next.Value
			}
			if next.Type != Whitespace || strings.ContainsAny(next.Value, "\r\n") {
				break
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// Append adds an entry at the end of the document. A non-empty comment is
// written after the host name as "# comment".
func (d *Document) Append(hostName string, addr netip.Addr, comment string) {
	d.appendStart()
	d.tokens = append(d.tokens,
		Token{Type: Address, Value: addr.String()},
		Token{Type: Whitespace, Value: "\t"},
		Token{Type: HostName, Value: strings.TrimSpace(hostName)},
	)
	if comment != "" {
		d.tokens = append(d.tokens,
			Token{Type: Whitespace, Value: "\t"},
			Token{Type: Comment, Value: "# " + comment},
		)
	}
}

// Comment adds a comment line at the end of the document.
func (d *Document) Comment(text string) {
	d.appendStart()
	d.tokens = append(d.tokens, Token{Type: Comment, Value: "# " + text})
}

// NewLine adds an empty line at the end of the document.
func (d *Document) NewLine() {
	d.appendStart()
	d.tokens = append(d.tokens, Token{Type: Whitespace, Value: d.lineEnding})
}

// Remove deletes the first entry for hostName together with the rest of its
// line and anything up to the next entry. It reports whether an entry was
// removed; a missing or malformed entry is left alone.
func (d *Document) Remove(hostName string) bool {
	i := d.hostIndex(hostName)
	if i < 0 || !d.paired(i) {
		return false
	}
	d.removeAt(i)
	return true
}

// RemoveEntry is Remove restricted to the entry binding hostName to addr.
func (d *Document) RemoveEntry(hostName string, addr netip.Addr) bool {
	for i, tok := range d.tokens {
		if tok.Type != HostName || tok.Value != hostName || !d.paired(i) {
			continue
		}
		a, err := ParseAddress(d.tokens[i-2].Value)
		if err != nil || a != addr {
			continue
		}
		d.removeAt(i)
		return true
	}
	return false
}

// String renders the document. This is the only way text is produced.
func (d *Document) String() string {
	var b strings.Builder
	for _, tok := range d.tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// WriteTo writes the rendered document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// appendStart marks the document modified and makes sure whatever is added
// next starts on its own line.
func (d *Document) appendStart() {
	d.modified = true
	if len(d.tokens) == 0 {
		return
	}
	if last := d.tokens[len(d.tokens)-1]; last.Type == Whitespace && strings.ContainsAny(last.Value, "\r\n") {
		return
	}
	d.tokens = append(d.tokens, Token{Type: Whitespace, Value: d.lineEnding, inserted: true})
}

func (d *Document) hostIndex(hostName string) int {
	for i, tok := range d.tokens {
		if tok.Type == HostName && tok.Value == hostName {
			return i
		}
	}
	return -1
}

// paired reports whether the HostName token at i follows an Address across
// exactly one Whitespace token.
func (d *Document) paired(i int) bool {
	return i >= 2 && d.tokens[i-1].Type == Whitespace && d.tokens[i-2].Type == Address
}

func (d *Document) nextEntryIndex(offset int) int {
	for i := offset + 1; i < len(d.tokens); i++ {
		if d.tokens[i].Type == Address {
			return i
		}
	}
	return -1
}

// removeAt cuts the entry whose HostName token is at i. Followed by another
// entry, everything from this entry's address up to the next address goes.
// Otherwise the document is truncated at the address, and a line break the
// document inserted in front of it goes too.
func (d *Document) removeAt(i int) {
	d.modified = true
	first := i - 2
	if next := d.nextEntryIndex(i); next > 0 {
		d.tokens = append(d.tokens[:first], d.tokens[next:]...)
		return
	}
	if first > 0 && d.tokens[first-1].inserted {
		first--
	}
	d.tokens = d.tokens[:first]
}
