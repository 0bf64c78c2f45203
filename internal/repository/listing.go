package repository

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/olivere/elastic/v7"
)

type ListingRepository interface {
	GetListingsBySeller(seller entity.Address, size, from int) ([]entity.Listing, int64, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) GetListingsBySeller(seller entity.Address, size, from int) ([]entity.Listing, int64, error) {
	query := elastic.NewTermQuery("seller.keyword", seller.String())

	results, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort("id", true).
		Size(size).
		From(from).
		TrackTotalHits(true))

	return r.findMany(results, err)
}

func (r listingRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Listing, int64, error) {
	listings := make([]entity.Listing, 0)
	if err != nil {
		return listings, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var listing entity.Listing
		if err := json.Unmarshal(hit.Source, &listing); err != nil {
			return nil, 0, err
		}
		listings = append(listings, listing)
	}

	return listings, results.TotalHits(), nil
}
