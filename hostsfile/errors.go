package hostsfile

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrMalformedAddress is returned when an address token cannot be parsed.
var ErrMalformedAddress = errors.New("malformed address")

// AddressError records the text that failed to parse as an address.
type AddressError struct {
	Value string
	Err   error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrMalformedAddress, e.Value, e.Err)
}

func (e *AddressError) Unwrap() []error {
	return []error{ErrMalformedAddress, e.Err}
}

// ParseAddress parses the text of an address token. Zoned IPv6 addresses
// such as fe80::1%lo0 are accepted.
func ParseAddress(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, &AddressError{Value: s, Err: err}
	}
	return addr, nil
}
