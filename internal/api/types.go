package api

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ExchangeInfo struct {
	Address            entity.Address `json:"address"`
	AddressBech32      string         `json:"addressBech32"`
	Admin              entity.Address `json:"admin"`
	AdminBech32        string         `json:"adminBech32"`
	PlatformFeePercent uint64         `json:"platformFeePercent"`
	ValueLedger        entity.Address `json:"valueLedger"`
	NextListingId      uint64         `json:"nextListingId"`
}

type TokenInfo struct {
	Address     entity.Address `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    int32          `json:"decimals"`
	TotalSupply string         `json:"totalSupply"`
}

type CreateListingRequest struct {
	Registry string `json:"registry"`
	ItemId   uint64 `json:"itemId"`
	Price    string `json:"price"`
	FeeParam uint64 `json:"feeParam"`
}

type ListingResponse struct {
	entity.Listing
	SellerBech32 string `json:"sellerBech32"`
	BuyerBech32  string `json:"buyerBech32,omitempty"`
	DisplayPrice string `json:"displayPrice"`
}

type SaleResponse struct {
	entity.Sale
	DisplayPrice       string `json:"displayPrice"`
	DisplayPlatformFee string `json:"displayPlatformFee"`
	DisplayProceeds    string `json:"displaySellerProceeds"`
}

// AmountRequest is the body of token transfers (Target is the recipient) and
// approvals (Target is the spender).
type AmountRequest struct {
	Target string `json:"target"`
	Amount string `json:"amount"`
}

type AmountResponse struct {
	Owner   entity.Address `json:"owner"`
	Spender entity.Address `json:"spender,omitempty"`
	Amount  string         `json:"amount"`
	Display string         `json:"display"`
}

type RegistryInfo struct {
	Address       entity.Address `json:"address"`
	AddressBech32 string         `json:"addressBech32"`
	Name          string         `json:"name"`
	Symbol        string         `json:"symbol"`
	TokenCount    uint64         `json:"tokenCount"`
}

type MintRequest struct {
	TokenUri string `json:"tokenUri"`
}

type ApproveItemRequest struct {
	To string `json:"to"`
}

type OperatorRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type OperatorResponse struct {
	Owner    entity.Address `json:"owner"`
	Operator entity.Address `json:"operator"`
	Approved bool           `json:"approved"`
}
