package entity

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"strings"
	"testing"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"0xA000000000000000000000000000000000000001", "0xa000000000000000000000000000000000000001"},
		{"a000000000000000000000000000000000000001", "0xa000000000000000000000000000000000000001"},
		{"  0x00000000000000000000000000000000000e8c4a ", "0x00000000000000000000000000000000000e8c4a"},
	}
	for _, tt := range tests {
		got, err := NewAddress(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewAddress_Invalid(t *testing.T) {
	for _, in := range []string{"", "0x", "0x123", "0xz000000000000000000000000000000000000001", "zil1notreallyanaddress"} {
		_, err := NewAddress(in)
		assert.True(t, errors.Is(err, ErrInvalidAddress), in)
	}
}

func TestAddress_Bech32RoundTrip(t *testing.T) {
	addr := MustAddress("0x0000000000000000000000000000000000001a66")

	bech32 := addr.Bech32()
	require.True(t, strings.HasPrefix(bech32, "zil1"), bech32)

	parsed, err := NewAddress(bech32)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, MustAddress("0xa000000000000000000000000000000000000001").IsZero())
	assert.Equal(t, "", Address("").Bech32())
}

func TestMustAddress_Panics(t *testing.T) {
	assert.Panics(t, func() { MustAddress("nope") })
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 115792089237316195423570985008687907853269984665640564039457584007913129639935 ")
	require.NoError(t, err)
	assert.Equal(t, 256, amount.BitLen())

	_, err = ParseAmount("12.5")
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = ParseAmount("")
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "4000", FormatAmount(big.NewInt(4000), 0))
	assert.Equal(t, "40", FormatAmount(big.NewInt(4000), 2))
	assert.Equal(t, "40.05", FormatAmount(big.NewInt(4005), 2))
	assert.Equal(t, "0.001", FormatAmount(big.NewInt(1), 3))
	assert.Equal(t, "0", FormatAmount(nil, 12))
}

func TestCopyAmount(t *testing.T) {
	original := big.NewInt(10)
	copied := CopyAmount(original)
	copied.SetInt64(11)

	assert.Equal(t, int64(10), original.Int64())
	assert.Equal(t, int64(0), CopyAmount(nil).Int64())
}

func TestListing_CopySharesNoPrice(t *testing.T) {
	listing := Listing{ID: 1, Price: big.NewInt(4000), State: ListingActive}

	copied := listing.Copy()
	copied.Price.SetInt64(1)

	assert.Equal(t, int64(4000), listing.Price.Int64())
	assert.True(t, listing.IsActive())
	assert.False(t, Listing{State: ListingSold}.IsActive())
}

func TestSlugs(t *testing.T) {
	registry := MustAddress("0x2000000000000000000000000000000000000001")

	assert.Equal(t, "listing-7", Listing{ID: 7}.Slug())
	assert.Equal(t, CreateItemSlug(3, registry), Item{Registry: registry, ItemId: 3}.Slug())
	assert.Equal(t, "sale-7-abc", Sale{ListingId: 7, ReceiptId: "abc"}.Slug())

	listed := ExchangeAction{ListingId: 7, Registry: registry, ItemId: 3, Action: ListingAction}
	sold := listed
	sold.Action = SaleAction
	assert.Len(t, listed.Slug(), 32)
	assert.NotEqual(t, listed.Slug(), sold.Slug())
	assert.Equal(t, listed.Slug(), CreateExchangeActionSlug(7, registry, 3, "listing"))
}
