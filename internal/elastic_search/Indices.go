package elastic_search

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
)

type Indices string

var (
	ListingIndex        Indices = "listing"
	ExchangeActionIndex Indices = "exchange_action"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}

func All() []Indices {
	return []Indices{
		ListingIndex,
		ExchangeActionIndex,
	}
}
