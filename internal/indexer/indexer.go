package indexer

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/factory"
	"go.uber.org/zap"
)

var ErrUnexpectedPayload = errors.New("unexpected event payload")

type ListingSource interface {
	GetListing(ctx context.Context, listingId uint64) (entity.Listing, error)
}

// ExchangeIndexer projects exchange events into the listing and exchange action indices.
type ExchangeIndexer interface {
	Listen(events *event.Manager)
	Handle(eventType event.Type, msg interface{}) error
}

type exchangeIndexer struct {
	elastic  elastic_search.Index
	listings ListingSource
	fungible string
}

func NewExchangeIndexer(elastic elastic_search.Index, listings ListingSource, fungible string) ExchangeIndexer {
	return exchangeIndexer{elastic, listings, fungible}
}

func (i exchangeIndexer) Listen(events *event.Manager) {
	events.Subscribe(func(eventType event.Type, msg interface{}) {
		if err := i.Handle(eventType, msg); err != nil {
			zap.L().With(zap.String("type", string(eventType)), zap.Error(err)).Error("Indexer: Failed to project event")
		}
	}, event.ListingCreatedEvent, event.ListingSoldEvent, event.ListingCancelledEvent)
}

func (i exchangeIndexer) Handle(eventType event.Type, msg interface{}) error {
	var err error
	switch eventType {
	case event.ListingCreatedEvent:
		err = i.indexListing(msg)
	case event.ListingCancelledEvent:
		err = i.indexDelisting(msg)
	case event.ListingSoldEvent:
		err = i.indexSale(msg)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := i.elastic.Persist(); err != nil {
		zap.L().With(zap.String("type", string(eventType)), zap.Error(err)).Error("Indexer: Requests kept for the next persist")
		return err
	}

	return nil
}

func (i exchangeIndexer) indexListing(msg interface{}) error {
	listing, ok := msg.(entity.Listing)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, msg)
	}

	zap.L().With(
		zap.Uint64("listingId", listing.ID),
		zap.String("registry", listing.Registry.String()),
		zap.Uint64("itemId", listing.ItemId),
		zap.String("cost", listing.Price.String()),
	).Info("Exchange listing")

	i.elastic.AddIndexRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingCreate)
	i.elastic.AddIndexRequest(elastic_search.ExchangeActionIndex.Get(), factory.CreateListingAction(listing, i.fungible), elastic_search.ExchangeAction)

	return nil
}

func (i exchangeIndexer) indexDelisting(msg interface{}) error {
	listing, ok := msg.(entity.Listing)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, msg)
	}

	zap.L().With(
		zap.Uint64("listingId", listing.ID),
		zap.String("registry", listing.Registry.String()),
		zap.Uint64("itemId", listing.ItemId),
	).Info("Exchange delisting")

	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingCancel)
	i.elastic.AddIndexRequest(elastic_search.ExchangeActionIndex.Get(), factory.CreateDelistingAction(listing), elastic_search.ExchangeAction)

	return nil
}

func (i exchangeIndexer) indexSale(msg interface{}) error {
	sale, ok := msg.(entity.Sale)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, msg)
	}

	zap.L().With(
		zap.Uint64("listingId", sale.ListingId),
		zap.String("registry", sale.Registry.String()),
		zap.Uint64("itemId", sale.ItemId),
		zap.String("from", sale.Seller.String()),
		zap.String("to", sale.Buyer.String()),
		zap.String("cost", sale.Price.String()),
		zap.String("fee", sale.PlatformFee.String()),
	).Info("Exchange sale")

	listing, err := i.listings.GetListing(context.Background(), sale.ListingId)
	if err != nil {
		zap.L().With(zap.Uint64("listingId", sale.ListingId), zap.Error(err)).Error("Failed to find listing")
		return err
	}

	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingSold)
	i.elastic.AddIndexRequest(elastic_search.ExchangeActionIndex.Get(), factory.CreateSaleAction(sale, i.fungible), elastic_search.ExchangeAction)

	return nil
}
