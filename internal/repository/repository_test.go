package repository

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var seller = entity.MustAddress("0xa000000000000000000000000000000000000002")

type searchCall struct {
	path string
	body string
}

func newElastic(t *testing.T, response string, calls *[]searchCall) elastic_search.Index {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*calls = append(*calls, searchCall{r.URL.Path, string(body)})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	idx, err := elastic_search.New(config.ElasticSearchConfig{Hosts: []string{server.URL}}, config.AwsConfig{})
	require.NoError(t, err)

	return idx
}

const listingHits = `{"took":1,"hits":{"total":{"value":2,"relation":"eq"},"hits":[
	{"_index":"zilliqa.exchange.listing","_id":"listing-1","_source":{"id":1,"registry":"0x2000000000000000000000000000000000000001","itemId":1,"price":4000,"seller":"0xa000000000000000000000000000000000000002","state":"Sold"}},
	{"_index":"zilliqa.exchange.listing","_id":"listing-3","_source":{"id":3,"registry":"0x2000000000000000000000000000000000000001","itemId":4,"price":10,"seller":"0xa000000000000000000000000000000000000002","state":"Active"}}
]}}`

func TestGetListingsBySeller(t *testing.T) {
	var calls []searchCall
	repo := NewListingRepository(newElastic(t, listingHits, &calls))

	listings, total, err := repo.GetListingsBySeller(seller, 10, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, listings, 2)
	assert.Equal(t, entity.ListingSold, listings[0].State)
	assert.Equal(t, 0, listings[0].Price.Cmp(big.NewInt(4000)))
	assert.Equal(t, uint64(3), listings[1].ID)

	require.Len(t, calls, 1)
	assert.True(t, strings.HasSuffix(calls[0].path, elastic_search.ListingIndex.Get()+"/_search"))
	assert.Contains(t, calls[0].body, seller.String())
}

func TestGetActionsForListing(t *testing.T) {
	var calls []searchCall
	response := `{"took":1,"hits":{"total":{"value":2,"relation":"eq"},"hits":[
		{"_id":"a","_source":{"listingId":1,"action":"listing","from":"0xa000000000000000000000000000000000000002","cost":"4000","fee":"0"}},
		{"_id":"b","_source":{"listingId":1,"action":"sale","from":"0xa000000000000000000000000000000000000002","to":"0xa000000000000000000000000000000000000004","cost":"4000","fee":"1000","receiptId":"r1"}}
	]}}`
	repo := NewExchangeActionRepository(newElastic(t, response, &calls))

	actions, err := repo.GetActionsForListing(1)

	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, entity.ListingAction, actions[0].Action)
	assert.Equal(t, entity.SaleAction, actions[1].Action)
	assert.Equal(t, "1000", actions[1].Fee)
	assert.Contains(t, calls[0].path, elastic_search.ExchangeActionIndex.Get())
}

func TestGetActionsForItem(t *testing.T) {
	var calls []searchCall
	registry := entity.MustAddress("0x2000000000000000000000000000000000000001")
	response := `{"took":1,"hits":{"total":{"value":5,"relation":"eq"},"hits":[
		{"_id":"c","_source":{"listingId":2,"registry":"0x2000000000000000000000000000000000000001","itemId":4,"action":"delisting","from":"0xa000000000000000000000000000000000000002","cost":"10","fee":"0"}}
	]}}`
	repo := NewExchangeActionRepository(newElastic(t, response, &calls))

	actions, total, err := repo.GetActionsForItem(registry, 4, 1, 4)

	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, actions, 1)
	assert.Equal(t, entity.DelistingAction, actions[0].Action)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].body, registry.String())
	assert.Contains(t, calls[0].body, `"from":4`)
}
