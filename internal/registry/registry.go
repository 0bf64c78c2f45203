package registry

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/helper"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"go.uber.org/zap"
)

var (
	ErrItemNotFound       = errors.New("invalid token id")
	ErrNotOwnerOrApproved = errors.New("caller is not token owner or approved")
	ErrIncorrectOwner     = errors.New("transfer from incorrect owner")
	ErrInvalidRecipient   = errors.New("transfer to the zero address")
	ErrApprovalToOwner    = errors.New("approval to current owner")
	ErrApproveToCaller    = errors.New("approve to caller")
	ErrInvalidTokenUri    = errors.New("invalid token uri")
	ErrInvalidMinter      = errors.New("mint to the zero address")
)

// Registry is a non-fungible item registry with ERC721 semantics.
type Registry interface {
	Address() entity.Address
	Name() string
	Symbol() string

	Mint(ctx context.Context, minter entity.Address, tokenUri string) (uint64, error)
	TokenCount(ctx context.Context) (uint64, error)
	TokenURI(ctx context.Context, itemId uint64) (string, error)
	OwnerOf(ctx context.Context, itemId uint64) (entity.Address, error)
	BalanceOf(ctx context.Context, owner entity.Address) (uint64, error)
	GetItem(ctx context.Context, itemId uint64) (entity.Item, error)

	Approve(ctx context.Context, caller, to entity.Address, itemId uint64) error
	GetApproved(ctx context.Context, itemId uint64) (entity.Address, error)
	SetApprovalForAll(ctx context.Context, owner, operator entity.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, operator entity.Address) (bool, error)
	TransferFrom(ctx context.Context, caller, from, to entity.Address, itemId uint64) error
}

type Params struct {
	Address entity.Address
	Name    string
	Symbol  string
}

type registry struct {
	txn     *txn.Manager
	events  event.Publisher
	address entity.Address
	name    string
	symbol  string

	tokenCount uint64
	items      map[uint64]*entity.Item
	balances   map[entity.Address]uint64
	operators  map[entity.Address]map[entity.Address]bool
}

// NewRegistry returns an empty registry; events may be nil.
func NewRegistry(manager *txn.Manager, events event.Publisher, params Params) Registry {
	return &registry{
		txn:       manager,
		events:    events,
		address:   params.Address,
		name:      params.Name,
		symbol:    params.Symbol,
		items:     make(map[uint64]*entity.Item),
		balances:  make(map[entity.Address]uint64),
		operators: make(map[entity.Address]map[entity.Address]bool),
	}
}

func (r *registry) Address() entity.Address {
	return r.address
}

func (r *registry) Name() string {
	return r.name
}

func (r *registry) Symbol() string {
	return r.symbol
}

// Mint creates the next item, owned by minter. Ids start at 1.
func (r *registry) Mint(ctx context.Context, minter entity.Address, tokenUri string) (itemId uint64, err error) {
	err = r.txn.Execute(ctx, "registry.mint", func(ctx context.Context) error {
		if minter.IsZero() {
			return ErrInvalidMinter
		}
		if !helper.IsTokenUri(tokenUri) {
			return fmt.Errorf("%w: %q", ErrInvalidTokenUri, tokenUri)
		}

		r.tokenCount++
		itemId = r.tokenCount
		item := &entity.Item{Registry: r.address, ItemId: itemId, Owner: minter, TokenUri: tokenUri}
		r.items[itemId] = item
		r.balances[minter]++

		txn.OnRollback(ctx, func() {
			r.balances[minter]--
			delete(r.items, itemId)
			r.tokenCount--
		})

		minted := *item
		txn.AfterCommit(ctx, func() {
			zap.L().With(
				zap.String("registry", r.address.String()),
				zap.Uint64("itemId", minted.ItemId),
				zap.String("owner", minted.Owner.String()),
			).Info("Registry: Item minted")

			if r.events != nil {
				r.events.EmitEvent(event.ItemMintedEvent, minted)
			}
		})

		return nil
	})

	return
}

func (r *registry) TokenCount(ctx context.Context) (count uint64, err error) {
	err = r.txn.View(ctx, func() error {
		count = r.tokenCount
		return nil
	})

	return
}

func (r *registry) TokenURI(ctx context.Context, itemId uint64) (string, error) {
	item, err := r.GetItem(ctx, itemId)
	return item.TokenUri, err
}

func (r *registry) OwnerOf(ctx context.Context, itemId uint64) (entity.Address, error) {
	item, err := r.GetItem(ctx, itemId)
	return item.Owner, err
}

func (r *registry) BalanceOf(ctx context.Context, owner entity.Address) (balance uint64, err error) {
	err = r.txn.View(ctx, func() error {
		balance = r.balances[owner]
		return nil
	})

	return
}

func (r *registry) GetItem(ctx context.Context, itemId uint64) (item entity.Item, err error) {
	err = r.txn.View(ctx, func() error {
		stored, ok := r.items[itemId]
		if !ok {
			return fmt.Errorf("%w: %d", ErrItemNotFound, itemId)
		}
		item = *stored
		return nil
	})

	return
}

func (r *registry) Approve(ctx context.Context, caller, to entity.Address, itemId uint64) error {
	return r.txn.Execute(ctx, "registry.approve", func(ctx context.Context) error {
		item, ok := r.items[itemId]
		if !ok {
			return fmt.Errorf("%w: %d", ErrItemNotFound, itemId)
		}
		if to == item.Owner {
			return ErrApprovalToOwner
		}
		if caller != item.Owner && !r.operators[item.Owner][caller] {
			return ErrNotOwnerOrApproved
		}

		r.setApproved(ctx, item, to)
		return nil
	})
}

func (r *registry) GetApproved(ctx context.Context, itemId uint64) (entity.Address, error) {
	item, err := r.GetItem(ctx, itemId)
	return item.Approved, err
}

func (r *registry) SetApprovalForAll(ctx context.Context, owner, operator entity.Address, approved bool) error {
	return r.txn.Execute(ctx, "registry.setApprovalForAll", func(ctx context.Context) error {
		if owner == operator {
			return ErrApproveToCaller
		}

		operators, ok := r.operators[owner]
		if !ok {
			operators = make(map[entity.Address]bool)
			r.operators[owner] = operators
			txn.OnRollback(ctx, func() { delete(r.operators, owner) })
		}
		prev, existed := operators[operator]
		operators[operator] = approved

		txn.OnRollback(ctx, func() {
			if existed {
				operators[operator] = prev
			} else {
				delete(operators, operator)
			}
		})

		zap.L().With(
			zap.String("registry", r.address.String()),
			zap.String("owner", owner.String()),
			zap.String("operator", operator.String()),
			zap.Bool("approved", approved),
		).Debug("Registry: ApprovalForAll")

		return nil
	})
}

func (r *registry) IsApprovedForAll(ctx context.Context, owner, operator entity.Address) (approved bool, err error) {
	err = r.txn.View(ctx, func() error {
		approved = r.operators[owner][operator]
		return nil
	})

	return
}

func (r *registry) TransferFrom(ctx context.Context, caller, from, to entity.Address, itemId uint64) error {
	return r.txn.Execute(ctx, "registry.transferFrom", func(ctx context.Context) error {
		item, ok := r.items[itemId]
		if !ok {
			return fmt.Errorf("%w: %d", ErrItemNotFound, itemId)
		}
		if caller != item.Owner && item.Approved != caller && !r.operators[item.Owner][caller] {
			return ErrNotOwnerOrApproved
		}
		if item.Owner != from {
			return ErrIncorrectOwner
		}
		if to.IsZero() {
			return ErrInvalidRecipient
		}

		r.setApproved(ctx, item, "")
		item.Owner = to
		r.balances[from]--
		r.balances[to]++

		txn.OnRollback(ctx, func() {
			r.balances[to]--
			r.balances[from]++
			item.Owner = from
		})

		zap.L().With(
			zap.String("registry", r.address.String()),
			zap.Uint64("itemId", itemId),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		).Debug("Registry: Transfer")

		return nil
	})
}

func (r *registry) setApproved(ctx context.Context, item *entity.Item, to entity.Address) {
	prev := item.Approved
	item.Approved = to
	txn.OnRollback(ctx, func() { item.Approved = prev })
}
