package di

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/api"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/indexer"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/ledger"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/metrics"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/registry"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/repository"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

// Definitions builds everything from config.Get(). The elastic, indexer and
// repo definitions resolve to nil when no search hosts are configured.
var Definitions = []di.Def{
	{
		Name: "txn",
		Build: func(ctn di.Container) (interface{}, error) {
			return txn.NewManager(), nil
		},
	},
	{
		Name: "events",
		Build: func(ctn di.Container) (interface{}, error) {
			return event.NewManager(), nil
		},
		Close: func(obj interface{}) error {
			obj.(*event.Manager).Close()
			return nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			address, err := entity.NewAddress(cfg.Token.Address)
			if err != nil {
				return nil, err
			}
			issuer, err := entity.NewAddress(cfg.Exchange.Admin)
			if err != nil {
				return nil, err
			}
			supply, err := entity.ParseAmount(cfg.Token.Supply)
			if err != nil {
				return nil, err
			}

			return ledger.NewLedger(ctn.Get("txn").(*txn.Manager), ledger.Params{
				Address:  address,
				Name:     cfg.Token.Name,
				Symbol:   cfg.Token.Symbol,
				Decimals: cfg.Token.Decimals,
				Supply:   supply,
				Issuer:   issuer,
			})
		},
	},
	{
		Name: "registry",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			address, err := entity.NewAddress(cfg.Registry.Address)
			if err != nil {
				return nil, err
			}

			return registry.NewRegistry(
				ctn.Get("txn").(*txn.Manager),
				ctn.Get("events").(*event.Manager),
				registry.Params{Address: address, Name: cfg.Registry.Name, Symbol: cfg.Registry.Symbol},
			), nil
		},
	},
	{
		Name: "directory",
		Build: func(ctn di.Container) (interface{}, error) {
			return registry.NewDirectory(ctn.Get("registry").(registry.Registry))
		},
	},
	{
		Name: "exchange",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			address, err := entity.NewAddress(cfg.Exchange.Address)
			if err != nil {
				return nil, err
			}
			admin, err := entity.NewAddress(cfg.Exchange.Admin)
			if err != nil {
				return nil, err
			}
			directory := ctn.Get("directory").(registry.Directory)

			return exchange.New(exchange.Params{
				Address:    address,
				Admin:      admin,
				FeePercent: cfg.Exchange.FeePercent,
				Ledger:     ctn.Get("ledger").(ledger.Ledger),
				Registries: exchange.ResolverFunc(func(address entity.Address) (exchange.ItemRegistry, error) {
					return directory.Get(address)
				}),
				Txn:    ctn.Get("txn").(*txn.Manager),
				Events: ctn.Get("events").(*event.Manager),
			})
		},
	},
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			if !cfg.ElasticSearch.Enabled() {
				zap.L().Info("ElasticSearch: No hosts configured, activity index disabled")
				return nil, nil
			}

			elastic, err := elastic_search.New(cfg.ElasticSearch, cfg.Aws)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
		Close: func(obj interface{}) error {
			if elastic, ok := obj.(elastic_search.Index); ok {
				if _, err := elastic.Persist(); err != nil {
					zap.L().With(zap.Error(err)).Error("ElasticSearch: Pending requests lost at shutdown")
					return err
				}
			}
			return nil
		},
	},
	{
		Name: "indexer",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, ok := ctn.Get("elastic").(elastic_search.Index)
			if !ok {
				return nil, nil
			}

			return indexer.NewExchangeIndexer(
				elastic,
				ctn.Get("exchange").(exchange.Exchange),
				ctn.Get("ledger").(ledger.Ledger).Symbol(),
			), nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, ok := ctn.Get("elastic").(elastic_search.Index)
			if !ok {
				return nil, nil
			}

			return repository.NewListingRepository(elastic), nil
		},
	},
	{
		Name: "action.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, ok := ctn.Get("elastic").(elastic_search.Index)
			if !ok {
				return nil, nil
			}

			return repository.NewExchangeActionRepository(elastic), nil
		},
	},
	{
		Name: "metrics",
		Build: func(ctn di.Container) (interface{}, error) {
			return metrics.New(), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			listings, _ := ctn.Get("listing.repo").(repository.ListingRepository)
			actions, _ := ctn.Get("action.repo").(repository.ExchangeActionRepository)

			return api.NewServer(
				ctn.Get("exchange").(exchange.Exchange),
				ctn.Get("ledger").(ledger.Ledger),
				ctn.Get("directory").(registry.Directory),
				listings,
				actions,
				ctn.Get("metrics").(*metrics.Metrics),
			), nil
		},
	},
}
