package entity

import (
	"crypto/md5"
	"fmt"
	"time"
)

type ExchangeAction struct {
	ListingId uint64     `json:"listingId"`
	Registry  Address    `json:"registry"`
	ItemId    uint64     `json:"itemId"`
	Action    ActionType `json:"action"`
	From      Address    `json:"from"`
	To        Address    `json:"to,omitempty"`
	Cost      string     `json:"cost"`
	Fee       string     `json:"fee"`
	Fungible  string     `json:"fungible"`
	ReceiptId string     `json:"receiptId,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type ActionType string

const (
	ListingAction   ActionType = "listing"
	DelistingAction ActionType = "delisting"
	SaleAction      ActionType = "sale"
)

func (a ExchangeAction) Slug() string {
	return CreateExchangeActionSlug(a.ListingId, a.Registry, a.ItemId, string(a.Action))
}

// A listing has at most one action of each type, so the tuple is unique.
func CreateExchangeActionSlug(listingId uint64, registry Address, itemId uint64, action string) string {
	data := []byte(fmt.Sprintf("exchangeaction-%d-%s-%d-%s", listingId, registry, itemId, action))
	return fmt.Sprintf("%x", md5.Sum(data))
}
