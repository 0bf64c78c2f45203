package factory

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
)

func CreateListingAction(listing entity.Listing, fungible string) entity.ExchangeAction {
	return entity.ExchangeAction{
		ListingId: listing.ID,
		Registry:  listing.Registry,
		ItemId:    listing.ItemId,
		Action:    entity.ListingAction,
		From:      listing.Seller,
		Cost:      listing.Price.String(),
		Fee:       "0",
		Fungible:  fungible,
		Timestamp: listing.CreatedAt,
	}
}

func CreateDelistingAction(listing entity.Listing) entity.ExchangeAction {
	return entity.ExchangeAction{
		ListingId: listing.ID,
		Registry:  listing.Registry,
		ItemId:    listing.ItemId,
		Action:    entity.DelistingAction,
		From:      listing.Seller,
		Cost:      "0",
		Fee:       "0",
		Timestamp: listing.UpdatedAt,
	}
}

func CreateSaleAction(sale entity.Sale, fungible string) entity.ExchangeAction {
	return entity.ExchangeAction{
		ListingId: sale.ListingId,
		Registry:  sale.Registry,
		ItemId:    sale.ItemId,
		Action:    entity.SaleAction,
		From:      sale.Seller,
		To:        sale.Buyer,
		Cost:      sale.Price.String(),
		Fee:       sale.PlatformFee.String(),
		Fungible:  fungible,
		ReceiptId: sale.ReceiptId,
		Timestamp: sale.SettledAt,
	}
}
