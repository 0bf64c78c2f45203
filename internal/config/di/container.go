package di

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/api"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/indexer"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/ledger"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/metrics"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/registry"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/repository"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"github.com/sarulabs/di/v2"
)

// Container gives typed access to the Definitions.
type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	return NewContainerWith(Definitions...)
}

// NewContainerWith builds a container from defs; later defs override earlier ones with the same name.
func NewContainerWith(defs ...di.Def) (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	unique := make([]di.Def, 0, len(defs))
	for _, def := range defs {
		if i, ok := byName[def.Name]; ok {
			unique[i] = def
			continue
		}
		byName[def.Name] = len(unique)
		unique = append(unique, def)
	}

	if err := builder.Add(unique...); err != nil {
		return nil, err
	}

	return &Container{builder.Build()}, nil
}

func (c *Container) Delete() error {
	return c.ctn.Delete()
}

func (c *Container) GetTxn() *txn.Manager {
	return c.ctn.Get("txn").(*txn.Manager)
}

func (c *Container) GetEvents() *event.Manager {
	return c.ctn.Get("events").(*event.Manager)
}

func (c *Container) GetLedger() ledger.Ledger {
	return c.ctn.Get("ledger").(ledger.Ledger)
}

func (c *Container) GetRegistry() registry.Registry {
	return c.ctn.Get("registry").(registry.Registry)
}

func (c *Container) GetDirectory() registry.Directory {
	return c.ctn.Get("directory").(registry.Directory)
}

func (c *Container) GetExchange() exchange.Exchange {
	return c.ctn.Get("exchange").(exchange.Exchange)
}

// GetElastic returns nil when the activity index is disabled.
func (c *Container) GetElastic() elastic_search.Index {
	elastic, _ := c.ctn.Get("elastic").(elastic_search.Index)
	return elastic
}

func (c *Container) GetIndexer() indexer.ExchangeIndexer {
	exchangeIndexer, _ := c.ctn.Get("indexer").(indexer.ExchangeIndexer)
	return exchangeIndexer
}

func (c *Container) GetListingRepo() repository.ListingRepository {
	repo, _ := c.ctn.Get("listing.repo").(repository.ListingRepository)
	return repo
}

func (c *Container) GetActionRepo() repository.ExchangeActionRepository {
	repo, _ := c.ctn.Get("action.repo").(repository.ExchangeActionRepository)
	return repo
}

func (c *Container) GetMetrics() *metrics.Metrics {
	return c.ctn.Get("metrics").(*metrics.Metrics)
}

func (c *Container) GetApi() api.Server {
	return c.ctn.Get("api").(api.Server)
}
