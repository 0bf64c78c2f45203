package main

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/client"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config/di"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
	"strconv"
)

var api *client.Client

func main() {
	config.Init("cli")

	app := &cli.App{
		Name:  "exchange",
		Usage: "interact with the NFT exchange api",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: config.Get().ApiUrl, Usage: "exchange api url"},
			&cli.StringFlag{Name: "caller", Value: config.Get().Caller, Usage: "address to act as (base16 or bech32)"},
		},
		Before: connect,
		Commands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "show the exchange and value token configuration",
				Action: info,
			},
			{
				Name:   "registries",
				Usage:  "show the item registries the exchange trades",
				Action: registries,
			},
			{
				Name:      "mint",
				Usage:     "mint an item to the caller",
				ArgsUsage: "<tokenUri>",
				Action:    mint,
				Flags:     []cli.Flag{registryFlag()},
			},
			{
				Name:      "approve-items",
				Usage:     "approve the exchange for one item, or for all items with --all",
				ArgsUsage: "[itemId]",
				Action:    approveItems,
				Flags: []cli.Flag{
					registryFlag(),
					&cli.BoolFlag{Name: "all", Usage: "approve the exchange as operator for every item"},
					&cli.BoolFlag{Name: "revoke", Usage: "revoke operator approval (with --all)"},
				},
			},
			{
				Name:      "approve-tokens",
				Usage:     "allow the exchange to spend value tokens on behalf of the caller",
				ArgsUsage: "<amount>",
				Action:    approveTokens,
			},
			{
				Name:      "balance",
				Usage:     "show the value token balance and exchange allowance of an address",
				ArgsUsage: "[address]",
				Action:    balance,
			},
			{
				Name:      "transfer",
				Usage:     "transfer value tokens from the caller",
				ArgsUsage: "<to> <amount>",
				Action:    transfer,
			},
			{
				Name:      "list",
				Usage:     "list an item for sale",
				ArgsUsage: "<itemId> <price>",
				Action:    list,
				Flags: []cli.Flag{
					registryFlag(),
					&cli.Uint64Flag{Name: "fee", Value: 25, Usage: "fee parameter recorded on the listing"},
				},
			},
			{
				Name:      "show",
				Usage:     "show a listing",
				ArgsUsage: "<listingId>",
				Action:    show,
			},
			{
				Name:   "listings",
				Usage:  "show listings",
				Action: listings,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seller", Usage: "filter by seller"},
					&cli.StringFlag{Name: "registry", Usage: "filter by registry"},
					&cli.StringFlag{Name: "state", Usage: "filter by state (Active, Sold, Cancelled)"},
				},
			},
			{
				Name:      "buy",
				Usage:     "purchase a listing",
				ArgsUsage: "<listingId>",
				Action:    buy,
			},
			{
				Name:      "cancel",
				Usage:     "cancel a listing",
				ArgsUsage: "<listingId>",
				Action:    cancel,
			},
			{
				Name:      "activity",
				Usage:     "show the indexed activity of a listing",
				ArgsUsage: "<listingId>",
				Action:    activity,
			},
			{
				Name:      "item-activity",
				Usage:     "show the indexed exchange activity of an item",
				ArgsUsage: "<itemId>",
				Action:    itemActivity,
				Flags: []cli.Flag{
					registryFlag(),
					&cli.IntFlag{Name: "size", Value: 20},
					&cli.IntFlag{Name: "from", Value: 0},
				},
			},
			{
				Name:   "mappings",
				Usage:  "install the elastic search index mappings",
				Action: mappings,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func connect(c *cli.Context) error {
	var caller entity.Address
	if value := c.String("caller"); value != "" {
		var err error
		if caller, err = entity.NewAddress(value); err != nil {
			return err
		}
	}

	api = client.New(c.String("api"), caller, config.Get().ApiRetries)

	return nil
}

func registryFlag() cli.Flag {
	return &cli.StringFlag{Name: "registry", Value: config.Get().Registry.Address, Usage: "item registry address"}
}

func info(c *cli.Context) error {
	ex, err := api.Exchange(c.Context)
	if err != nil {
		return err
	}
	token, err := api.Token(c.Context)
	if err != nil {
		return err
	}

	return output(map[string]interface{}{"exchange": ex, "token": token})
}

func registries(c *cli.Context) error {
	found, err := api.Registries(c.Context)
	if err != nil {
		return err
	}

	return output(found)
}

func mint(c *cli.Context) error {
	registry, err := entity.NewAddress(c.String("registry"))
	if err != nil {
		return err
	}
	if c.Args().Len() != 1 {
		return cli.Exit("usage: mint <tokenUri>", 1)
	}

	item, err := api.Mint(c.Context, registry, c.Args().First())
	if err != nil {
		return err
	}

	return output(item)
}

func approveItems(c *cli.Context) error {
	registry, err := entity.NewAddress(c.String("registry"))
	if err != nil {
		return err
	}
	ex, err := api.Exchange(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("all") {
		resp, err := api.SetOperator(c.Context, registry, ex.Address, !c.Bool("revoke"))
		if err != nil {
			return err
		}
		return output(resp)
	}

	itemId, err := uintArg(c, 0, "itemId")
	if err != nil {
		return err
	}

	item, err := api.ApproveItem(c.Context, registry, itemId, ex.Address)
	if err != nil {
		return err
	}

	return output(item)
}

func approveTokens(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: approve-tokens <amount>", 1)
	}
	ex, err := api.Exchange(c.Context)
	if err != nil {
		return err
	}

	resp, err := api.ApproveTokens(c.Context, ex.Address, c.Args().First())
	if err != nil {
		return err
	}

	return output(resp)
}

func balance(c *cli.Context) error {
	owner, err := entity.NewAddress(c.Args().First())
	if c.Args().Len() == 0 {
		owner, err = entity.NewAddress(c.String("caller"))
	}
	if err != nil {
		return err
	}
	ex, err := api.Exchange(c.Context)
	if err != nil {
		return err
	}

	held, err := api.Balance(c.Context, owner)
	if err != nil {
		return err
	}
	allowance, err := api.Allowance(c.Context, owner, ex.Address)
	if err != nil {
		return err
	}

	return output(map[string]interface{}{"balance": held, "exchangeAllowance": allowance})
}

func transfer(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: transfer <to> <amount>", 1)
	}
	to, err := entity.NewAddress(c.Args().Get(0))
	if err != nil {
		return err
	}

	resp, err := api.Transfer(c.Context, to, c.Args().Get(1))
	if err != nil {
		return err
	}

	return output(resp)
}

func list(c *cli.Context) error {
	registry, err := entity.NewAddress(c.String("registry"))
	if err != nil {
		return err
	}
	itemId, err := uintArg(c, 0, "itemId")
	if err != nil {
		return err
	}
	if c.Args().Len() != 2 {
		return cli.Exit("usage: list <itemId> <price>", 1)
	}

	listing, err := api.List(c.Context, registry, itemId, c.Args().Get(1), c.Uint64("fee"))
	if err != nil {
		return err
	}
	zap.L().With(zap.Uint64("listingId", listing.ID)).Info("Listing created")

	return output(listing)
}

func show(c *cli.Context) error {
	listingId, err := uintArg(c, 0, "listingId")
	if err != nil {
		return err
	}

	listing, err := api.Listing(c.Context, listingId)
	if err != nil {
		return err
	}

	return output(listing)
}

func listings(c *cli.Context) error {
	filter := exchange.ListingFilter{State: entity.ListingState(c.String("state"))}
	if seller := c.String("seller"); seller != "" {
		addr, err := entity.NewAddress(seller)
		if err != nil {
			return err
		}
		filter.Seller = addr
	}
	if registry := c.String("registry"); registry != "" {
		addr, err := entity.NewAddress(registry)
		if err != nil {
			return err
		}
		filter.Registry = addr
	}

	found, err := api.Listings(c.Context, filter)
	if err != nil {
		return err
	}

	return output(found)
}

func buy(c *cli.Context) error {
	listingId, err := uintArg(c, 0, "listingId")
	if err != nil {
		return err
	}

	sale, err := api.Purchase(c.Context, listingId)
	if err != nil {
		return err
	}
	zap.L().With(zap.Uint64("listingId", listingId), zap.String("receiptId", sale.ReceiptId)).Info("Listing purchased")

	return output(sale)
}

func cancel(c *cli.Context) error {
	listingId, err := uintArg(c, 0, "listingId")
	if err != nil {
		return err
	}

	listing, err := api.Cancel(c.Context, listingId)
	if err != nil {
		return err
	}

	return output(listing)
}

func activity(c *cli.Context) error {
	listingId, err := uintArg(c, 0, "listingId")
	if err != nil {
		return err
	}

	actions, err := api.Activity(c.Context, listingId)
	if err != nil {
		return err
	}

	return output(actions)
}

func itemActivity(c *cli.Context) error {
	registry, err := entity.NewAddress(c.String("registry"))
	if err != nil {
		return err
	}
	itemId, err := uintArg(c, 0, "itemId")
	if err != nil {
		return err
	}

	actions, err := api.ItemActivity(c.Context, registry, itemId, c.Int("size"), c.Int("from"))
	if err != nil {
		return err
	}

	return output(actions)
}

// ELASTIC SEARCH
func mappings(c *cli.Context) error {
	container, err := di.NewContainer()
	if err != nil {
		return err
	}
	defer func() { _ = container.Delete() }()

	elastic := container.GetElastic()
	if elastic == nil {
		return cli.Exit("ELASTIC_SEARCH_HOSTS is not configured", 1)
	}

	if err := elastic.InstallMappings(); err != nil {
		return err
	}
	zap.L().Info("Mappings installed")

	return nil
}

func uintArg(c *cli.Context, pos int, name string) (uint64, error) {
	value, err := strconv.ParseUint(c.Args().Get(pos), 10, 64)
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("invalid %s: %q", name, c.Args().Get(pos)), 1)
	}

	return value, nil
}

func output(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	return nil
}
