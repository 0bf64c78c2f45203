package repository

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/olivere/elastic/v7"
)

type ExchangeActionRepository interface {
	GetActionsForListing(listingId uint64) ([]entity.ExchangeAction, error)
	GetActionsForItem(registry entity.Address, itemId uint64, size, from int) ([]entity.ExchangeAction, int64, error)
}

type exchangeActionRepository struct {
	elastic elastic_search.Index
}

func NewExchangeActionRepository(elastic elastic_search.Index) ExchangeActionRepository {
	return exchangeActionRepository{elastic}
}

func (r exchangeActionRepository) GetActionsForListing(listingId uint64) ([]entity.ExchangeAction, error) {
	query := elastic.NewTermQuery("listingId", listingId)

	results, err := search(r.elastic.GetClient().
		Search(elastic_search.ExchangeActionIndex.Get()).
		Query(query).
		Sort("timestamp", true).
		Size(10))

	actions, _, err := r.findMany(results, err)

	return actions, err
}

func (r exchangeActionRepository) GetActionsForItem(registry entity.Address, itemId uint64, size, from int) ([]entity.ExchangeAction, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("registry.keyword", registry.String()),
		elastic.NewTermQuery("itemId", itemId),
	)

	results, err := search(r.elastic.GetClient().
		Search(elastic_search.ExchangeActionIndex.Get()).
		Query(query).
		Sort("timestamp", false).
		Size(size).
		From(from).
		TrackTotalHits(true))

	return r.findMany(results, err)
}

func (r exchangeActionRepository) findMany(results *elastic.SearchResult, err error) ([]entity.ExchangeAction, int64, error) {
	actions := make([]entity.ExchangeAction, 0)
	if err != nil {
		return actions, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var action entity.ExchangeAction
		if err := json.Unmarshal(hit.Source, &action); err != nil {
			return nil, 0, err
		}
		actions = append(actions, action)
	}

	return actions, results.TotalHits(), nil
}
