package entity

import (
	"fmt"
	"github.com/gosimple/slug"
	"math/big"
	"time"
)

type ListingState string

const (
	ListingActive    ListingState = "Active"
	ListingSold      ListingState = "Sold"
	ListingCancelled ListingState = "Cancelled"
)

type Listing struct {
	ID        uint64       `json:"id"`
	Registry  Address      `json:"registry"`
	ItemId    uint64       `json:"itemId"`
	Price     *big.Int     `json:"price"`
	FeeParam  uint64       `json:"feeParam"`
	Seller    Address      `json:"seller"`
	Buyer     Address      `json:"buyer,omitempty"`
	State     ListingState `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.ID)
}

func CreateListingSlug(id uint64) string {
	return slug.Make(fmt.Sprintf("listing-%d", id))
}

func (l Listing) IsActive() bool {
	return l.State == ListingActive
}

// Copy returns a listing that shares no mutable memory with l.
func (l Listing) Copy() Listing {
	l.Price = CopyAmount(l.Price)
	return l
}
