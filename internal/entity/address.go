package entity

import (
	"errors"
	"fmt"
	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"regexp"
	"strings"
)

type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var (
	ErrInvalidAddress = errors.New("invalid address")

	base16Address = regexp.MustCompile("^[0-9a-f]{40}$")
)

// NewAddress accepts a base16 (0x...) or bech32 (zil1...) address and returns it as
// lowercase base16 with a 0x prefix.
func NewAddress(addr string) (Address, error) {
	addr = strings.TrimSpace(addr)

	if strings.HasPrefix(strings.ToLower(addr), "zil1") {
		base16, err := bech32.FromBech32Addr(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
		}
		addr = base16
	}

	addr = strings.TrimPrefix(strings.ToLower(addr), "0x")
	if !base16Address.MatchString(addr) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}

	return Address("0x" + addr), nil
}

func MustAddress(addr string) Address {
	a, err := NewAddress(addr)
	if err != nil {
		panic(err)
	}

	return a
}

func (a Address) String() string {
	return string(a)
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) Bech32() string {
	if a == "" {
		return ""
	}

	bech32Address, err := bech32.ToBech32Address(string(a))
	if err != nil {
		return ""
	}

	return bech32Address
}
