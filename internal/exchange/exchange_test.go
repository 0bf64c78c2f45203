package exchange

import (
	"context"
	"errors"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/ledger"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/registry"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
)

const tokenUri1 = "https://gateway.pinata.cloud/ipfs/QmZFkQt9kkBNbDqKVdSN5E3nscUnwBJ1dKcm6xUVz8r9VP"

var (
	exchangeAddr = entity.MustAddress("0xc000000000000000000000000000000000000001")
	tokenAddr    = entity.MustAddress("0x1000000000000000000000000000000000000001")
	registryAddr = entity.MustAddress("0x2000000000000000000000000000000000000001")
	admin        = entity.MustAddress("0xa000000000000000000000000000000000000001")
	seller1      = entity.MustAddress("0xa000000000000000000000000000000000000002")
	seller2      = entity.MustAddress("0xa000000000000000000000000000000000000003")
	buyer        = entity.MustAddress("0xa000000000000000000000000000000000000004")

	errInjected = errors.New("injected failure")
	fixedTime   = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
)

type recorder struct {
	mu    sync.Mutex
	types []event.Type
	data  []interface{}
}

func (r *recorder) EmitEvent(t event.Type, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, t)
	r.data = append(r.data, data)
}

func (r *recorder) Types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Type(nil), r.types...)
}

type fixture struct {
	txn    *txn.Manager
	ledger ledger.Ledger
	items  registry.Registry
	ex     Exchange
	events *recorder
}

type fixtureOption func(p *Params, f *fixture)

func withLedger(wrap func(ledger.Ledger) ValueLedger) fixtureOption {
	return func(p *Params, f *fixture) { p.Ledger = wrap(f.ledger) }
}

func withRegistry(wrap func(registry.Registry) ItemRegistry) fixtureOption {
	return func(p *Params, f *fixture) {
		wrapped := wrap(f.items)
		p.Registries = ResolverFunc(func(address entity.Address) (ItemRegistry, error) {
			if address != registryAddr {
				return nil, registry.ErrRegistryNotFound
			}
			return wrapped, nil
		})
	}
}

func newFixture(t *testing.T, feePercent uint64, opts ...fixtureOption) *fixture {
	ctx := context.Background()
	f := &fixture{txn: txn.NewManager(), events: &recorder{}}

	var err error
	f.ledger, err = ledger.NewLedger(f.txn, ledger.Params{
		Address: tokenAddr,
		Name:    "JagguToken",
		Symbol:  "JAG",
		Supply:  big.NewInt(10000000),
		Issuer:  admin,
	})
	require.NoError(t, err)
	for _, holder := range []entity.Address{seller1, seller2, buyer} {
		require.NoError(t, f.ledger.Transfer(ctx, admin, holder, big.NewInt(100000)))
	}

	f.items = registry.NewRegistry(f.txn, nil, registry.Params{Address: registryAddr, Name: "NFT", Symbol: "NFT"})
	directory, err := registry.NewDirectory(f.items)
	require.NoError(t, err)

	params := Params{
		Address:    exchangeAddr,
		Admin:      admin,
		FeePercent: feePercent,
		Ledger:     f.ledger,
		Registries: ResolverFunc(func(address entity.Address) (ItemRegistry, error) {
			r, err := directory.Get(address)
			if err != nil {
				return nil, err
			}
			return r, nil
		}),
		Txn:    f.txn,
		Events: f.events,
		Clock:  func() time.Time { return fixedTime },
	}
	for _, opt := range opts {
		opt(&params, f)
	}

	f.ex, err = New(params)
	require.NoError(t, err)

	return f
}

func (f *fixture) mintApproved(t *testing.T, owner entity.Address) uint64 {
	ctx := context.Background()
	itemId, err := f.items.Mint(ctx, owner, tokenUri1)
	require.NoError(t, err)
	require.NoError(t, f.items.SetApprovalForAll(ctx, owner, exchangeAddr, true))

	return itemId
}

func (f *fixture) list(t *testing.T, seller entity.Address, price int64) uint64 {
	itemId := f.mintApproved(t, seller)
	id, err := f.ex.List(context.Background(), seller, registryAddr, itemId, big.NewInt(price), 25)
	require.NoError(t, err)

	return id
}

func (f *fixture) approveTokens(t *testing.T, owner entity.Address, amount int64) {
	require.NoError(t, f.ledger.Approve(context.Background(), owner, exchangeAddr, big.NewInt(amount)))
}

func (f *fixture) balance(t *testing.T, owner entity.Address) int64 {
	b, err := f.ledger.BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	return b.Int64()
}

func (f *fixture) owner(t *testing.T, itemId uint64) entity.Address {
	o, err := f.items.OwnerOf(context.Background(), itemId)
	require.NoError(t, err)
	return o
}

type snapshot struct {
	balances map[entity.Address]int64
	owners   map[uint64]entity.Address
	listings []entity.Listing
	next     uint64
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	ctx := context.Background()
	s := snapshot{balances: map[entity.Address]int64{}, owners: map[uint64]entity.Address{}}
	for _, a := range []entity.Address{admin, seller1, seller2, buyer} {
		s.balances[a] = f.balance(t, a)
	}
	count, err := f.items.TokenCount(ctx)
	require.NoError(t, err)
	for id := uint64(1); id <= count; id++ {
		s.owners[id] = f.owner(t, id)
	}
	s.listings, err = f.ex.Listings(ctx, ListingFilter{})
	require.NoError(t, err)
	s.next, err = f.ex.NextListingID(ctx)
	require.NoError(t, err)

	return s
}

type failingLedger struct {
	ledger.Ledger
	failOn int
	calls  int
}

func (l *failingLedger) TransferFrom(ctx context.Context, spender, from, to entity.Address, amount *big.Int) error {
	l.calls++
	if l.calls == l.failOn {
		return errInjected
	}
	return l.Ledger.TransferFrom(ctx, spender, from, to, amount)
}

type countingLedger struct {
	ledger.Ledger
	amounts []int64
}

func (l *countingLedger) TransferFrom(ctx context.Context, spender, from, to entity.Address, amount *big.Int) error {
	l.amounts = append(l.amounts, amount.Int64())
	return l.Ledger.TransferFrom(ctx, spender, from, to, amount)
}

type failingRegistry struct {
	registry.Registry
}

func (r *failingRegistry) TransferFrom(ctx context.Context, caller, from, to entity.Address, itemId uint64) error {
	if err := r.Registry.TransferFrom(ctx, caller, from, to, itemId); err != nil {
		return err
	}
	return errInjected
}

type reentrantRegistry struct {
	registry.Registry
	ex        Exchange
	listingId uint64
	purchase  error
	cancel    error
}

func (r *reentrantRegistry) TransferFrom(ctx context.Context, caller, from, to entity.Address, itemId uint64) error {
	_, r.purchase = r.ex.Purchase(ctx, to, r.listingId)
	r.cancel = r.ex.Cancel(ctx, from, r.listingId)
	return r.Registry.TransferFrom(ctx, caller, from, to, itemId)
}

func TestNew_Validation(t *testing.T) {
	m := txn.NewManager()
	l, err := ledger.NewLedger(m, ledger.Params{Address: tokenAddr, Supply: big.NewInt(1), Issuer: admin})
	require.NoError(t, err)
	resolver := ResolverFunc(func(entity.Address) (ItemRegistry, error) { return nil, errInjected })

	_, err = New(Params{Address: exchangeAddr, Admin: admin, FeePercent: 101, Ledger: l, Registries: resolver, Txn: m})
	assert.ErrorIs(t, err, ErrInvalidFeePercent)

	_, err = New(Params{Address: exchangeAddr, FeePercent: 25, Ledger: l, Registries: resolver, Txn: m})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Params{Address: exchangeAddr, Admin: admin, FeePercent: 25, Registries: resolver, Txn: m})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_Accessors(t *testing.T) {
	f := newFixture(t, 25)

	assert.Equal(t, uint64(25), f.ex.PlatformFeePercent())
	assert.Equal(t, admin, f.ex.Admin())
	assert.Equal(t, exchangeAddr, f.ex.Address())
	assert.Equal(t, tokenAddr, f.ex.ValueLedger().Address())

	next, err := f.ex.NextListingID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestList_RoundTrip(t *testing.T) {
	f := newFixture(t, 25)
	itemId := f.mintApproved(t, seller1)

	id, err := f.ex.List(context.Background(), seller1, registryAddr, itemId, big.NewInt(4000), 25)
	require.NoError(t, err)

	listing, err := f.ex.GetListing(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), listing.ID)
	assert.Equal(t, entity.ListingActive, listing.State)
	assert.Equal(t, seller1, listing.Seller)
	assert.Equal(t, itemId, listing.ItemId)
	assert.Equal(t, registryAddr, listing.Registry)
	assert.Equal(t, int64(4000), listing.Price.Int64())
	assert.Equal(t, uint64(25), listing.FeeParam)
	assert.Equal(t, fixedTime, listing.CreatedAt)

	assert.Equal(t, seller1, f.owner(t, itemId))
	assert.Equal(t, []event.Type{event.ListingCreatedEvent}, f.events.Types())
}

func TestList_PriceMustBePositive(t *testing.T) {
	f := newFixture(t, 25)
	itemId := f.mintApproved(t, seller1)
	ctx := context.Background()

	for _, price := range []*big.Int{big.NewInt(0), big.NewInt(-5), nil} {
		_, err := f.ex.List(ctx, seller1, registryAddr, itemId, price, 35)
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Equal(t, "price has to be greater than zero", err.Error())
	}

	next, _ := f.ex.NextListingID(ctx)
	assert.Equal(t, uint64(1), next)
	assert.Empty(t, f.events.Types())
}

func TestList_RequiresOwnershipAndApproval(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	approvedItem := f.mintApproved(t, seller1)
	_, err := f.ex.List(ctx, seller2, registryAddr, approvedItem, big.NewInt(10), 25)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved, "not the owner")

	bareItem, err := f.items.Mint(ctx, seller2, tokenUri1)
	require.NoError(t, err)
	_, err = f.ex.List(ctx, seller2, registryAddr, bareItem, big.NewInt(10), 25)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved, "not approved")

	_, err = f.ex.List(ctx, seller1, registryAddr, 99, big.NewInt(10), 25)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved, "unknown item")

	_, err = f.ex.List(ctx, seller1, tokenAddr, approvedItem, big.NewInt(10), 25)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved, "unknown registry")

	next, _ := f.ex.NextListingID(ctx)
	assert.Equal(t, uint64(1), next)
}

func TestList_SingleItemApprovalIsEnough(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	itemId, err := f.items.Mint(ctx, seller1, tokenUri1)
	require.NoError(t, err)
	require.NoError(t, f.items.Approve(ctx, seller1, exchangeAddr, itemId))

	id, err := f.ex.List(ctx, seller1, registryAddr, itemId, big.NewInt(10), 25)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestList_TwoSellersGetSequentialIds(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	item1 := f.mintApproved(t, seller1)
	item2 := f.mintApproved(t, seller2)
	assert.Equal(t, uint64(1), item1)
	assert.Equal(t, uint64(2), item2)

	id1, err := f.ex.List(ctx, seller1, registryAddr, item1, big.NewInt(4000), 25)
	require.NoError(t, err)
	id2, err := f.ex.List(ctx, seller2, registryAddr, item2, big.NewInt(5000), 35)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)

	second, err := f.ex.GetListing(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), second.FeeParam)
	assert.Equal(t, seller2, second.Seller)
}

func TestPurchase_Settles(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 4000)

	sale, err := f.ex.Purchase(ctx, buyer, id)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), sale.PlatformFee.Int64())
	assert.Equal(t, int64(3000), sale.SellerProceeds.Int64())
	assert.Equal(t, int64(4000), sale.Price.Int64())
	assert.Equal(t, uint64(25), sale.FeePercent)
	assert.Equal(t, seller1, sale.Seller)
	assert.Equal(t, buyer, sale.Buyer)
	assert.Equal(t, admin, sale.Admin)
	assert.NotEmpty(t, sale.ReceiptId)
	assert.Equal(t, fixedTime, sale.SettledAt)

	assert.Equal(t, int64(10000000-300000+1000), f.balance(t, admin))
	assert.Equal(t, int64(100000+3000), f.balance(t, seller1))
	assert.Equal(t, int64(100000-4000), f.balance(t, buyer))
	assert.Equal(t, buyer, f.owner(t, sale.ItemId))

	allowance, err := f.ledger.Allowance(ctx, buyer, exchangeAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(0), allowance.Int64())

	listing, err := f.ex.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingSold, listing.State)
	assert.Equal(t, buyer, listing.Buyer)

	assert.Equal(t, []event.Type{event.ListingCreatedEvent, event.ListingSoldEvent}, f.events.Types())
}

func TestPurchase_SecondPurchaseRejected(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 8000)

	_, err := f.ex.Purchase(ctx, buyer, id)
	require.NoError(t, err)

	before := f.snapshot(t)
	_, err = f.ex.Purchase(ctx, buyer, id)

	assert.ErrorIs(t, err, ErrListingNotActive)
	assert.Equal(t, before, f.snapshot(t))
}

func TestPurchase_MissingListing(t *testing.T) {
	f := newFixture(t, 25)

	_, err := f.ex.Purchase(context.Background(), buyer, 7)

	assert.ErrorIs(t, err, ErrListingNotActive)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 25)
	id := f.list(t, seller1, 200000)
	f.approveTokens(t, buyer, 200000)
	before := f.snapshot(t)

	_, err := f.ex.Purchase(context.Background(), buyer, id)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, before, f.snapshot(t))
}

func TestPurchase_InsufficientAllowance(t *testing.T) {
	f := newFixture(t, 25)
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 3999)
	before := f.snapshot(t)

	_, err := f.ex.Purchase(context.Background(), buyer, id)

	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, before, f.snapshot(t))
}

func TestPurchase_RechecksOwnershipAndApproval(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 4000)

	require.NoError(t, f.items.SetApprovalForAll(ctx, seller1, exchangeAddr, false))
	_, err := f.ex.Purchase(ctx, buyer, id)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved)

	require.NoError(t, f.items.SetApprovalForAll(ctx, seller1, exchangeAddr, true))
	require.NoError(t, f.items.TransferFrom(ctx, seller1, seller1, seller2, 1))
	_, err = f.ex.Purchase(ctx, buyer, id)
	assert.ErrorIs(t, err, ErrNotItemOwnerOrNotApproved)

	listing, _ := f.ex.GetListing(ctx, id)
	assert.Equal(t, entity.ListingActive, listing.State)
	assert.Equal(t, int64(100000), f.balance(t, buyer))
}

func TestPurchase_ZeroValueLegsAreSkipped(t *testing.T) {
	for _, tc := range []struct {
		percent uint64
		legs    []int64
	}{
		{percent: 0, legs: []int64{4000}},
		{percent: 100, legs: []int64{4000}},
		{percent: 35, legs: []int64{1400, 2600}},
	} {
		var counting *countingLedger
		f := newFixture(t, tc.percent, withLedger(func(l ledger.Ledger) ValueLedger {
			counting = &countingLedger{Ledger: l}
			return counting
		}))
		id := f.list(t, seller1, 4000)
		f.approveTokens(t, buyer, 4000)

		sale, err := f.ex.Purchase(context.Background(), buyer, id)
		require.NoError(t, err, "percent %d", tc.percent)

		assert.Equal(t, tc.legs, counting.amounts, "percent %d", tc.percent)
		assert.Equal(t, int64(4000), new(big.Int).Add(sale.PlatformFee, sale.SellerProceeds).Int64())
		assert.Equal(t, buyer, f.owner(t, sale.ItemId))
	}
}

func TestPurchase_FailingValueLedgerRollsBackEveryLeg(t *testing.T) {
	for _, failOn := range []int{1, 2} {
		f := newFixture(t, 25, withLedger(func(l ledger.Ledger) ValueLedger {
			return &failingLedger{Ledger: l, failOn: failOn}
		}))
		id := f.list(t, seller1, 4000)
		f.approveTokens(t, buyer, 4000)
		before := f.snapshot(t)

		_, err := f.ex.Purchase(context.Background(), buyer, id)

		assert.ErrorIs(t, err, ErrSettlementFailed)
		assert.ErrorIs(t, err, errInjected)
		assert.Equal(t, before, f.snapshot(t), "fail on leg %d", failOn)

		allowance, _ := f.ledger.Allowance(context.Background(), buyer, exchangeAddr)
		assert.Equal(t, int64(4000), allowance.Int64())
		assert.Equal(t, []event.Type{event.ListingCreatedEvent}, f.events.Types())
	}
}

func TestPurchase_FailingItemRegistryRollsBackPayment(t *testing.T) {
	f := newFixture(t, 25, withRegistry(func(r registry.Registry) ItemRegistry {
		return &failingRegistry{Registry: r}
	}))
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 4000)
	before := f.snapshot(t)

	_, err := f.ex.Purchase(context.Background(), buyer, id)

	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, seller1, f.owner(t, 1))

	approved, _ := f.items.IsApprovedForAll(context.Background(), seller1, exchangeAddr)
	assert.True(t, approved)
}

func TestPurchase_ReentrantCallsSeeSoldListing(t *testing.T) {
	var reentrant *reentrantRegistry
	f := newFixture(t, 25, withRegistry(func(r registry.Registry) ItemRegistry {
		reentrant = &reentrantRegistry{Registry: r, listingId: 1}
		return reentrant
	}))
	reentrant.ex = f.ex
	id := f.list(t, seller1, 4000)
	f.approveTokens(t, buyer, 8000)

	_, err := f.ex.Purchase(context.Background(), buyer, id)

	require.NoError(t, err)
	assert.ErrorIs(t, reentrant.purchase, ErrListingNotActive)
	assert.ErrorIs(t, reentrant.cancel, ErrListingNotActive)
	assert.Equal(t, int64(100000-4000), f.balance(t, buyer))
	assert.Equal(t, int64(100000+3000), f.balance(t, seller1))
}

func TestPurchase_ConcurrentBuyersSettleOnce(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	id := f.list(t, seller1, 4000)

	buyers := []entity.Address{buyer, seller2}
	for _, b := range buyers {
		f.approveTokens(t, b, 4000)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var sales int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(b entity.Address) {
			defer wg.Done()
			if _, err := f.ex.Purchase(ctx, b, id); err == nil {
				mu.Lock()
				sales++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrListingNotActive)
			}
		}(buyers[i%2])
	}
	wg.Wait()

	assert.Equal(t, 1, sales)
	assert.Equal(t, int64(10000000-300000+1000), f.balance(t, admin))
	assert.Equal(t, int64(100000+3000), f.balance(t, seller1))
}

func TestCancel_OnlySellerCancels(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	id := f.list(t, seller1, 4000)

	err := f.ex.Cancel(ctx, seller2, id)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, "you are not the owner of the NFT item", err.Error())
	listing, _ := f.ex.GetListing(ctx, id)
	assert.Equal(t, entity.ListingActive, listing.State)

	require.NoError(t, f.ex.Cancel(ctx, seller1, id))
	listing, _ = f.ex.GetListing(ctx, id)
	assert.Equal(t, entity.ListingCancelled, listing.State)

	approved, _ := f.items.IsApprovedForAll(ctx, seller1, exchangeAddr)
	assert.True(t, approved)
	assert.Equal(t, []event.Type{event.ListingCreatedEvent, event.ListingCancelledEvent}, f.events.Types())
}

func TestCancel_TerminalAndMissingListings(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	assert.ErrorIs(t, f.ex.Cancel(ctx, seller1, 1), ErrListingNotActive)

	cancelled := f.list(t, seller1, 4000)
	require.NoError(t, f.ex.Cancel(ctx, seller1, cancelled))
	assert.ErrorIs(t, f.ex.Cancel(ctx, seller1, cancelled), ErrListingNotActive)
	assert.ErrorIs(t, f.ex.Cancel(ctx, seller2, cancelled), ErrNotOwner)

	_, err := f.ex.Purchase(ctx, buyer, cancelled)
	assert.ErrorIs(t, err, ErrListingNotActive)

	sold := f.list(t, seller1, 10)
	f.approveTokens(t, buyer, 10)
	_, err = f.ex.Purchase(ctx, buyer, sold)
	require.NoError(t, err)
	assert.ErrorIs(t, f.ex.Cancel(ctx, seller1, sold), ErrListingNotActive)

	next, _ := f.ex.NextListingID(ctx)
	assert.Equal(t, uint64(3), next)
}

func TestGetListing(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	_, err := f.ex.GetListing(ctx, 1)
	assert.ErrorIs(t, err, ErrListingNotFound)

	id := f.list(t, seller1, 4000)
	first, err := f.ex.GetListing(ctx, id)
	require.NoError(t, err)
	first.Price.SetInt64(1)

	again, err := f.ex.GetListing(ctx, id)
	require.NoError(t, err)
	third, err := f.ex.GetListing(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int64(4000), again.Price.Int64())
	assert.Equal(t, again, third)
}

func TestListings_Filter(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	f.list(t, seller1, 100)
	cancelled := f.list(t, seller2, 200)
	f.list(t, seller1, 300)
	require.NoError(t, f.ex.Cancel(ctx, seller2, cancelled))

	all, err := f.ex.Listings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	bySeller, err := f.ex.Listings(ctx, ListingFilter{Seller: seller1})
	require.NoError(t, err)
	assert.Len(t, bySeller, 2)

	active, err := f.ex.Listings(ctx, ListingFilter{State: entity.ListingActive, Registry: registryAddr})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, uint64(3), active[1].ID)

	none, err := f.ex.Listings(ctx, ListingFilter{Seller: buyer})
	require.NoError(t, err)
	assert.Empty(t, none)
}
