package exchange

import (
	"errors"
)

var (
	ErrInvalidPrice              = errors.New("price has to be greater than zero")
	ErrNotItemOwnerOrNotApproved = errors.New("caller is not the item owner or the exchange is not approved")
	ErrListingNotActive          = errors.New("listing is not active")
	ErrListingNotFound           = errors.New("listing not found")
	ErrNotOwner                  = errors.New("you are not the owner of the NFT item")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrInsufficientAllowance     = errors.New("insufficient allowance")
	ErrInvalidFeePercent         = errors.New("fee percent must be between 0 and 100")
	ErrSettlementFailed          = errors.New("settlement failed")
	ErrInvalidConfig             = errors.New("invalid exchange configuration")
)

const (
	CodeInvalidPrice              = "InvalidPrice"
	CodeNotItemOwnerOrNotApproved = "NotItemOwnerOrNotApproved"
	CodeListingNotActive          = "ListingNotActive"
	CodeListingNotFound           = "ListingNotFound"
	CodeNotOwner                  = "NotOwner"
	CodeInsufficientFunds         = "InsufficientFunds"
	CodeInsufficientAllowance     = "InsufficientAllowance"
	CodeInvalidFeePercent         = "InvalidFeePercent"
	CodeSettlementFailed          = "SettlementFailed"
	CodeInvalidConfig             = "InvalidConfig"
	CodeInternal                  = "Internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidPrice, CodeInvalidPrice},
	{ErrNotItemOwnerOrNotApproved, CodeNotItemOwnerOrNotApproved},
	{ErrListingNotActive, CodeListingNotActive},
	{ErrListingNotFound, CodeListingNotFound},
	{ErrNotOwner, CodeNotOwner},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrInsufficientAllowance, CodeInsufficientAllowance},
	{ErrInvalidFeePercent, CodeInvalidFeePercent},
	{ErrSettlementFailed, CodeSettlementFailed},
	{ErrInvalidConfig, CodeInvalidConfig},
}

// Code names the rejection carried by err. Nil maps to "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}
