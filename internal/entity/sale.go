package entity

import (
	"fmt"
	"github.com/gosimple/slug"
	"math/big"
	"time"
)

// Sale is the receipt of a settled purchase.
type Sale struct {
	ReceiptId      string    `json:"receiptId"`
	ListingId      uint64    `json:"listingId"`
	Registry       Address   `json:"registry"`
	ItemId         uint64    `json:"itemId"`
	Seller         Address   `json:"seller"`
	Buyer          Address   `json:"buyer"`
	Admin          Address   `json:"admin"`
	Price          *big.Int  `json:"price"`
	PlatformFee    *big.Int  `json:"platformFee"`
	SellerProceeds *big.Int  `json:"sellerProceeds"`
	FeePercent     uint64    `json:"feePercent"`
	SettledAt      time.Time `json:"settledAt"`
}

func (s Sale) Slug() string {
	return slug.Make(fmt.Sprintf("sale-%d-%s", s.ListingId, s.ReceiptId))
}
