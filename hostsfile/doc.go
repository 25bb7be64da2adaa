// Package hostsfile edits hosts files without losing their formatting.
//
// Text is split by Tokenize into whitespace, address, host name and comment
// tokens. Joining the token values gives back the original text byte for
// byte, so a Document can add or remove entries and render the result while
// leaving every other line exactly as it was.
//
//	doc := hostsfile.Load(text)
//	doc.Append("test.local", netip.MustParseAddr("10.0.0.5"), "")
//	if doc.IsModified() {
//	    os.WriteFile(path, []byte(doc.String()), 0644)
//	}
//
// Words are classified by position only: the first word of a line is an
// address and the word after it a host name. A line with aliases, such as
// "::1 localhost ip6-localhost ip6-loopback", binds only localhost to ::1;
// the remaining words lex as another address/host name pair whose address
// does not parse.
//
// A Document is not safe for concurrent use.
package hostsfile
