package exchange

import (
	"context"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
	"math/big"
	"sort"
	"time"
)

// ValueLedger is the part of the fungible value token the exchange settles through.
type ValueLedger interface {
	Address() entity.Address
	BalanceOf(ctx context.Context, owner entity.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender entity.Address) (*big.Int, error)
	TransferFrom(ctx context.Context, spender, from, to entity.Address, amount *big.Int) error
}

// ItemRegistry is the part of a non-fungible registry the exchange needs.
type ItemRegistry interface {
	Address() entity.Address
	OwnerOf(ctx context.Context, itemId uint64) (entity.Address, error)
	GetApproved(ctx context.Context, itemId uint64) (entity.Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator entity.Address) (bool, error)
	TransferFrom(ctx context.Context, caller, from, to entity.Address, itemId uint64) error
}

type RegistryResolver interface {
	Resolve(address entity.Address) (ItemRegistry, error)
}

type ResolverFunc func(address entity.Address) (ItemRegistry, error)

func (f ResolverFunc) Resolve(address entity.Address) (ItemRegistry, error) {
	return f(address)
}

type ListingFilter struct {
	Seller   entity.Address
	Registry entity.Address
	State    entity.ListingState
}

func (f ListingFilter) matches(l *entity.Listing) bool {
	if f.Seller != "" && f.Seller != l.Seller {
		return false
	}
	if f.Registry != "" && f.Registry != l.Registry {
		return false
	}
	if f.State != "" && f.State != l.State {
		return false
	}

	return true
}

type Exchange interface {
	List(ctx context.Context, caller, registry entity.Address, itemId uint64, price *big.Int, feeParam uint64) (uint64, error)
	Purchase(ctx context.Context, caller entity.Address, listingId uint64) (*entity.Sale, error)
	Cancel(ctx context.Context, caller entity.Address, listingId uint64) error

	GetListing(ctx context.Context, listingId uint64) (entity.Listing, error)
	Listings(ctx context.Context, filter ListingFilter) ([]entity.Listing, error)
	NextListingID(ctx context.Context) (uint64, error)
	PlatformFeePercent() uint64
	Admin() entity.Address
	Address() entity.Address
	ValueLedger() ValueLedger
}

type Params struct {
	Address    entity.Address
	Admin      entity.Address
	FeePercent uint64
	Ledger     ValueLedger
	Registries RegistryResolver
	Txn        *txn.Manager
	Events     event.Publisher
	Clock      func() time.Time
}

type exchange struct {
	address    entity.Address
	admin      entity.Address
	feePercent uint64
	ledger     ValueLedger
	registries RegistryResolver
	txn        *txn.Manager
	events     event.Publisher
	clock      func() time.Time

	nextListingId uint64
	listings      map[uint64]*entity.Listing
}

func New(params Params) (Exchange, error) {
	if params.FeePercent > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFeePercent, params.FeePercent)
	}
	if params.Address.IsZero() || params.Admin.IsZero() {
		return nil, fmt.Errorf("%w: address and admin are required", ErrInvalidConfig)
	}
	if params.Ledger == nil || params.Registries == nil || params.Txn == nil {
		return nil, fmt.Errorf("%w: ledger, registries and txn are required", ErrInvalidConfig)
	}

	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	zap.L().With(
		zap.String("address", params.Address.String()),
		zap.String("admin", params.Admin.String()),
		zap.Uint64("feePercent", params.FeePercent),
		zap.String("ledger", params.Ledger.Address().String()),
	).Info("Exchange: Created")

	return &exchange{
		address:       params.Address,
		admin:         params.Admin,
		feePercent:    params.FeePercent,
		ledger:        params.Ledger,
		registries:    params.Registries,
		txn:           params.Txn,
		events:        params.Events,
		clock:         clock,
		nextListingId: 1,
		listings:      make(map[uint64]*entity.Listing),
	}, nil
}

func (e *exchange) List(ctx context.Context, caller, registry entity.Address, itemId uint64, price *big.Int, feeParam uint64) (listingId uint64, err error) {
	err = e.txn.Execute(ctx, "exchange.list", func(ctx context.Context) error {
		if price == nil || price.Sign() <= 0 {
			return ErrInvalidPrice
		}

		items, err := e.resolve(registry)
		if err != nil {
			return err
		}
		if err := e.checkTransferRights(ctx, items, caller, itemId); err != nil {
			return err
		}

		now := e.clock()
		listingId = e.nextListingId
		listing := &entity.Listing{
			ID:        listingId,
			Registry:  registry,
			ItemId:    itemId,
			Price:     entity.CopyAmount(price),
			FeeParam:  feeParam,
			Seller:    caller,
			State:     entity.ListingActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		e.listings[listingId] = listing
		e.nextListingId++

		txn.OnRollback(ctx, func() {
			e.nextListingId--
			delete(e.listings, listingId)
		})

		created := listing.Copy()
		txn.AfterCommit(ctx, func() {
			listingLogger(created).Info("Exchange: Listing created")
			e.emit(event.ListingCreatedEvent, created)
		})

		return nil
	})

	if err != nil {
		zap.L().With(
			zap.String("seller", caller.String()),
			zap.String("registry", registry.String()),
			zap.Uint64("itemId", itemId),
			zap.String("price", amountString(price)),
			zap.Error(err),
		).Warn("Exchange: List rejected")
		return 0, err
	}

	return listingId, nil
}

// Purchase settles an active listing. The listing is marked sold before any
// collaborator is called, so a call back into the exchange during settlement finds
// it inactive. Any failure rolls back every leg.
func (e *exchange) Purchase(ctx context.Context, caller entity.Address, listingId uint64) (sale *entity.Sale, err error) {
	err = e.txn.Execute(ctx, "exchange.purchase", func(ctx context.Context) error {
		listing, ok := e.listings[listingId]
		if !ok || !listing.IsActive() {
			return fmt.Errorf("%w: %d", ErrListingNotActive, listingId)
		}

		items, err := e.resolve(listing.Registry)
		if err != nil {
			return err
		}
		if err := e.checkTransferRights(ctx, items, listing.Seller, listing.ItemId); err != nil {
			return err
		}

		fee, proceeds, err := SplitFee(listing.Price, e.feePercent)
		if err != nil {
			return err
		}
		if err := e.checkFunds(ctx, caller, listing.Price); err != nil {
			return err
		}

		now := e.clock()
		e.setState(ctx, listing, entity.ListingSold, caller, now)

		if fee.Sign() > 0 {
			if err := e.ledger.TransferFrom(ctx, e.address, caller, e.admin, fee); err != nil {
				return fmt.Errorf("%w: platform fee: %w", ErrSettlementFailed, err)
			}
		}
		if proceeds.Sign() > 0 {
			if err := e.ledger.TransferFrom(ctx, e.address, caller, listing.Seller, proceeds); err != nil {
				return fmt.Errorf("%w: seller proceeds: %w", ErrSettlementFailed, err)
			}
		}
		if err := items.TransferFrom(ctx, e.address, listing.Seller, caller, listing.ItemId); err != nil {
			return fmt.Errorf("%w: item transfer: %w", ErrSettlementFailed, err)
		}

		receiptId, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("%w: receipt id: %w", ErrSettlementFailed, err)
		}

		sale = &entity.Sale{
			ReceiptId:      receiptId.String(),
			ListingId:      listing.ID,
			Registry:       listing.Registry,
			ItemId:         listing.ItemId,
			Seller:         listing.Seller,
			Buyer:          caller,
			Admin:          e.admin,
			Price:          entity.CopyAmount(listing.Price),
			PlatformFee:    fee,
			SellerProceeds: proceeds,
			FeePercent:     e.feePercent,
			SettledAt:      now,
		}

		settled := *sale
		txn.AfterCommit(ctx, func() {
			zap.L().With(
				zap.Uint64("listingId", settled.ListingId),
				zap.String("registry", settled.Registry.String()),
				zap.Uint64("itemId", settled.ItemId),
				zap.String("seller", settled.Seller.String()),
				zap.String("buyer", settled.Buyer.String()),
				zap.String("price", settled.Price.String()),
				zap.String("fee", settled.PlatformFee.String()),
				zap.String("receiptId", settled.ReceiptId),
			).Info("Exchange: Listing sold")
			e.emit(event.ListingSoldEvent, settled)
		})

		return nil
	})

	if err != nil {
		zap.L().With(
			zap.Uint64("listingId", listingId),
			zap.String("buyer", caller.String()),
			zap.Error(err),
		).Warn("Exchange: Purchase rejected")
		return nil, err
	}

	return sale, nil
}

func (e *exchange) Cancel(ctx context.Context, caller entity.Address, listingId uint64) error {
	err := e.txn.Execute(ctx, "exchange.cancel", func(ctx context.Context) error {
		listing, ok := e.listings[listingId]
		if !ok {
			return fmt.Errorf("%w: %d", ErrListingNotActive, listingId)
		}
		if listing.Seller != caller {
			return ErrNotOwner
		}
		if !listing.IsActive() {
			return fmt.Errorf("%w: %d is %s", ErrListingNotActive, listingId, listing.State)
		}

		e.setState(ctx, listing, entity.ListingCancelled, "", e.clock())

		cancelled := listing.Copy()
		txn.AfterCommit(ctx, func() {
			listingLogger(cancelled).Info("Exchange: Listing cancelled")
			e.emit(event.ListingCancelledEvent, cancelled)
		})

		return nil
	})

	if err != nil {
		zap.L().With(
			zap.Uint64("listingId", listingId),
			zap.String("caller", caller.String()),
			zap.Error(err),
		).Warn("Exchange: Cancel rejected")
	}

	return err
}

func (e *exchange) GetListing(ctx context.Context, listingId uint64) (listing entity.Listing, err error) {
	err = e.txn.View(ctx, func() error {
		stored, ok := e.listings[listingId]
		if !ok {
			return fmt.Errorf("%w: %d", ErrListingNotFound, listingId)
		}
		listing = stored.Copy()
		return nil
	})

	return
}

func (e *exchange) Listings(ctx context.Context, filter ListingFilter) (listings []entity.Listing, err error) {
	err = e.txn.View(ctx, func() error {
		listings = make([]entity.Listing, 0)
		for _, l := range e.listings {
			if filter.matches(l) {
				listings = append(listings, l.Copy())
			}
		}
		return nil
	})

	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })

	return
}

func (e *exchange) NextListingID(ctx context.Context) (id uint64, err error) {
	err = e.txn.View(ctx, func() error {
		id = e.nextListingId
		return nil
	})

	return
}

func (e *exchange) PlatformFeePercent() uint64 {
	return e.feePercent
}

func (e *exchange) Admin() entity.Address {
	return e.admin
}

func (e *exchange) Address() entity.Address {
	return e.address
}

func (e *exchange) ValueLedger() ValueLedger {
	return e.ledger
}

func (e *exchange) resolve(registry entity.Address) (ItemRegistry, error) {
	items, err := e.registries.Resolve(registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotItemOwnerOrNotApproved, err)
	}

	return items, nil
}

// checkTransferRights requires owner to hold itemId and the exchange to be approved
// for it, either for the single item or as an operator of all the owner's items.
func (e *exchange) checkTransferRights(ctx context.Context, items ItemRegistry, owner entity.Address, itemId uint64) error {
	current, err := items.OwnerOf(ctx, itemId)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotItemOwnerOrNotApproved, err)
	}
	if current != owner {
		return fmt.Errorf("%w: %s does not own item %d", ErrNotItemOwnerOrNotApproved, owner, itemId)
	}

	approved, err := items.GetApproved(ctx, itemId)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotItemOwnerOrNotApproved, err)
	}
	if approved == e.address {
		return nil
	}

	operator, err := items.IsApprovedForAll(ctx, owner, e.address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotItemOwnerOrNotApproved, err)
	}
	if !operator {
		return fmt.Errorf("%w: exchange is not approved for item %d", ErrNotItemOwnerOrNotApproved, itemId)
	}

	return nil
}

func (e *exchange) checkFunds(ctx context.Context, buyer entity.Address, price *big.Int) error {
	balance, err := e.ledger.BalanceOf(ctx, buyer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}
	if balance.Cmp(price) < 0 {
		return fmt.Errorf("%w: balance %s, price %s", ErrInsufficientFunds, balance, price)
	}

	allowance, err := e.ledger.Allowance(ctx, buyer, e.address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}
	if allowance.Cmp(price) < 0 {
		return fmt.Errorf("%w: allowance %s, price %s", ErrInsufficientAllowance, allowance, price)
	}

	return nil
}

func (e *exchange) setState(ctx context.Context, listing *entity.Listing, state entity.ListingState, buyer entity.Address, at time.Time) {
	prevState, prevBuyer, prevUpdated := listing.State, listing.Buyer, listing.UpdatedAt

	listing.State = state
	listing.Buyer = buyer
	listing.UpdatedAt = at

	txn.OnRollback(ctx, func() {
		listing.State = prevState
		listing.Buyer = prevBuyer
		listing.UpdatedAt = prevUpdated
	})
}

func (e *exchange) emit(eventType event.Type, data interface{}) {
	if e.events != nil {
		e.events.EmitEvent(eventType, data)
	}
}

func listingLogger(l entity.Listing) *zap.Logger {
	return zap.L().With(
		zap.Uint64("listingId", l.ID),
		zap.String("registry", l.Registry.String()),
		zap.Uint64("itemId", l.ItemId),
		zap.String("seller", l.Seller.String()),
		zap.String("price", l.Price.String()),
	)
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "<nil>"
	}

	return amount.String()
}
