package hostsfile

import (
	"bytes"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowsHosts = "# Copyright (c) 1993-2009 Microsoft Corp.\r\n" +
	"#\r\n" +
	"# This is a sample HOSTS file used by Microsoft TCP/IP for Windows.\r\n" +
	"\r\n" +
	"127.0.0.1       localhost\r\n" +
	"::1             localhost6 # ipv6 loopback\r\n"

func mustAddr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func TestLoadRenderUnmodified(t *testing.T) {
	doc := Load(windowsHosts)
	assert.Equal(t, windowsHosts, doc.String())
	assert.False(t, doc.IsModified())
}

func TestAppendThenRemoveRestoresText(t *testing.T) {
	const original = "127.0.0.1\tlocalhost\n"
	doc := Load(original)

	doc.Append("test.local", mustAddr("10.0.0.5"), "")
	assert.Equal(t, "127.0.0.1\tlocalhost\n10.0.0.5\ttest.local", doc.String())
	assert.True(t, doc.IsModified())

	require.True(t, doc.Remove("test.local"))
	assert.Equal(t, original, doc.String())
	assert.True(t, doc.IsModified())
}

func TestAppendWithoutTrailingBreak(t *testing.T) {
	const original = "127.0.0.1\tlocalhost"
	doc := Load(original)

	doc.Append("db", mustAddr("10.0.0.2"), "database")
	assert.Equal(t, "127.0.0.1\tlocalhost\n10.0.0.2\tdb\t# database", doc.String())

	doc.Remove("db")
	assert.Equal(t, original, doc.String())
}

func TestAppendAfterTrailingBlanks(t *testing.T) {
	for _, original := range []string{"127.0.0.1 localhost ", "127.0.0.1 localhost\t", "127.0.0.1 localhost \t "} {
		t.Run(strings.TrimSpace(original), func(t *testing.T) {
			doc := Load(original)
			doc.Append("test.local", mustAddr("10.0.0.5"), "")
			assert.Equal(t, original+"\n10.0.0.5\ttest.local", doc.String())

			addr, ok, err := doc.Lookup("test.local")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, mustAddr("10.0.0.5"), addr)

			reloaded := Load(doc.String())
			require.Len(t, reloaded.Entries(), 2)
			assert.Empty(t, reloaded.Entries()[0].Comment)

			require.True(t, doc.Remove("test.local"))
			assert.Equal(t, original, doc.String())
		})
	}
}

func TestCommentAndNewLineAfterTrailingBlanks(t *testing.T) {
	doc := Load("127.0.0.1 localhost\t")
	doc.Comment("note")
	assert.Equal(t, "127.0.0.1 localhost\t\n# note", doc.String())
	assert.Empty(t, Load(doc.String()).Entries()[0].Comment)

	doc = Load("127.0.0.1 localhost  ")
	doc.NewLine()
	assert.Equal(t, "127.0.0.1 localhost  \n\n", doc.String())
}

func TestAppendAfterIndentedBlankLine(t *testing.T) {
	doc := Load("127.0.0.1 localhost\n  ")
	doc.Append("a", mustAddr("10.0.0.1"), "")
	assert.Equal(t, "127.0.0.1 localhost\n  10.0.0.1\ta", doc.String())
}

func TestAppendUsesDocumentLineEnding(t *testing.T) {
	doc := Load(windowsHosts)
	doc.Comment("added")
	doc.NewLine()
	assert.True(t, strings.HasSuffix(doc.String(), "# ipv6 loopback\r\n# added\r\n\r\n"))

	doc = Load("127.0.0.1 a", WithLineEnding("\r\n"))
	doc.Append("b", mustAddr("10.0.0.1"), "")
	assert.Equal(t, "127.0.0.1 a\r\n10.0.0.1\tb", doc.String())
}

func TestAppendTrimsHostName(t *testing.T) {
	doc := Load("")
	doc.Append("  spaced.local \t", mustAddr("10.1.1.1"), "")
	assert.Equal(t, "10.1.1.1\tspaced.local", doc.String())
	assert.True(t, doc.Exists("spaced.local"))
}

func TestAppendThenLookup(t *testing.T) {
	doc := Load(windowsHosts)
	doc.Append("h", mustAddr("192.168.1.20"), "")

	addr, ok, err := doc.Lookup("h")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mustAddr("192.168.1.20"), addr)

	assert.True(t, doc.Exists("h"))
	assert.False(t, doc.Exists("nope"))

	_, ok, err = doc.Lookup("nope")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupIPv6(t *testing.T) {
	doc := Load(windowsHosts)
	addr, ok, err := doc.Lookup("localhost6")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mustAddr("::1"), addr)
}

func TestLookupFirstMatchWins(t *testing.T) {
	doc := Load("10.0.0.1 dup\n10.0.0.2 dup\n")
	addr, ok, err := doc.Lookup("dup")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mustAddr("10.0.0.1"), addr)
}

func TestLookupMalformedAddress(t *testing.T) {
	doc := Load("not-an-ip broken\n")
	_, ok, err := doc.Lookup("broken")
	assert.True(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedAddress))

	var addrErr *AddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "not-an-ip", addrErr.Value)
}

func TestLookupMalformedPairing(t *testing.T) {
	// The name is separated from its address by a comment, so it is not
	// an entry.
	doc := Load("10.0.0.1 # odd\nname\n")
	assert.True(t, doc.Exists("name"))

	_, ok, err := doc.Lookup("name")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, doc.Remove("name"))
	assert.False(t, doc.IsModified())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	doc := Load(windowsHosts)
	assert.False(t, doc.Remove("missing"))
	assert.False(t, doc.IsModified())
	assert.Equal(t, windowsHosts, doc.String())
}

func TestRemoveMiddleEntryPreservesSiblings(t *testing.T) {
	doc := Load("")
	doc.Append("a", mustAddr("10.0.0.1"), "")
	doc.Append("b", mustAddr("10.0.0.2"), "second")
	doc.Append("c", mustAddr("10.0.0.3"), "")

	require.True(t, doc.Remove("b"))

	for name, want := range map[string]string{"a": "10.0.0.1", "c": "10.0.0.3"} {
		addr, ok, err := doc.Lookup(name)
		require.NoError(t, err)
		require.True(t, ok, name)
		assert.Equal(t, mustAddr(want), addr)
	}
	assert.False(t, doc.Exists("b"))
	assert.NotContains(t, doc.String(), "10.0.0.2")
	assert.NotContains(t, doc.String(), "second")
	assert.Equal(t, "10.0.0.1\ta\n10.0.0.3\tc", doc.String())
}

func TestRemoveLastLoadedEntry(t *testing.T) {
	doc := Load("127.0.0.1 localhost\n10.0.0.1 app # web\n")
	require.True(t, doc.Remove("app"))
	assert.Equal(t, "127.0.0.1 localhost\n", doc.String())
}

func TestRemoveFirstEntry(t *testing.T) {
	doc := Load("10.0.0.1 first\n10.0.0.2 second\n")
	require.True(t, doc.Remove("first"))
	assert.Equal(t, "10.0.0.2 second\n", doc.String())
}

func TestRemoveEntryMatchesAddress(t *testing.T) {
	doc := Load("10.0.0.1 app\n10.0.0.2 app\n10.0.0.3 other\n")

	assert.False(t, doc.RemoveEntry("app", mustAddr("10.0.0.9")))
	require.True(t, doc.RemoveEntry("app", mustAddr("10.0.0.2")))
	assert.Equal(t, "10.0.0.1 app\n10.0.0.3 other\n", doc.String())
}

func TestCommentOnEmptyDocument(t *testing.T) {
	doc := Load("")
	doc.Comment("note")
	assert.Equal(t, "# note", doc.String())
	assert.True(t, doc.IsModified())
}

func TestCommentKeepsExistingTokens(t *testing.T) {
	doc := Load(windowsHosts)
	before := doc.Tokens()

	doc.Comment("managed below")

	after := doc.Tokens()
	require.Greater(t, len(after), len(before))
	for i, tok := range before {
		assert.Equal(t, tok.Value, after[i].Value)
	}
	assert.Equal(t, windowsHosts+"# managed below", doc.String())
}

func TestNewLine(t *testing.T) {
	doc := Load("127.0.0.1 localhost")
	doc.NewLine()
	assert.Equal(t, "127.0.0.1 localhost\n\n", doc.String())
}

func TestEntries(t *testing.T) {
	doc := Load(windowsHosts + "10.0.0.7 svc\t# service\n# 10.0.0.8 disabled\n")

	entries := doc.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "localhost", entries[0].HostName)
	assert.Equal(t, "127.0.0.1", entries[0].Address)
	assert.Empty(t, entries[0].Comment)

	assert.Equal(t, "localhost6", entries[1].HostName)
	assert.Equal(t, "# ipv6 loopback", entries[1].Comment)

	assert.Equal(t, "svc", entries[2].HostName)
	assert.Equal(t, "# service", entries[2].Comment)
	addr, err := entries[2].Addr()
	require.NoError(t, err)
	assert.Equal(t, mustAddr("10.0.0.7"), addr)

	assert.Equal(t, HostName, doc.Tokens()[entries[2].Index].Type)
}

func TestReadAndWriteTo(t *testing.T) {
	doc, err := Read(strings.NewReader(windowsHosts))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(windowsHosts)), n)
	assert.Equal(t, windowsHosts, buf.String())
}

func TestTokensReturnsCopy(t *testing.T) {
	doc := Load("127.0.0.1 localhost\n")
	tokens := doc.Tokens()
	tokens[0].Value = "changed"
	assert.Equal(t, "127.0.0.1 localhost\n", doc.String())
	assert.Equal(t, 4, doc.Len())
}
