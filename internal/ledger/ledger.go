package ledger

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/txn"
	"go.uber.org/zap"
	"math/big"
)

var (
	ErrInsufficientFunds     = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("amount must not be negative")
	ErrInvalidRecipient      = errors.New("transfer to the zero address")
	ErrInvalidSpender        = errors.New("approve to the zero address")
)

// Ledger is a fungible value token with ERC20 semantics.
type Ledger interface {
	Address() entity.Address
	Name() string
	Symbol() string
	Decimals() int32

	TotalSupply(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, owner entity.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender entity.Address) (*big.Int, error)

	Transfer(ctx context.Context, from, to entity.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to entity.Address, amount *big.Int) error
	Approve(ctx context.Context, owner, spender entity.Address, amount *big.Int) error
}

type Params struct {
	Address  entity.Address
	Name     string
	Symbol   string
	Decimals int32
	Supply   *big.Int
	Issuer   entity.Address
}

type ledger struct {
	txn      *txn.Manager
	address  entity.Address
	name     string
	symbol   string
	decimals int32
	supply   *big.Int

	balances   map[entity.Address]*big.Int
	allowances map[entity.Address]map[entity.Address]*big.Int
}

// NewLedger issues the whole supply to params.Issuer.
func NewLedger(manager *txn.Manager, params Params) (Ledger, error) {
	if params.Supply == nil || params.Supply.Sign() < 0 {
		return nil, fmt.Errorf("%w: supply", ErrInvalidAmount)
	}
	if params.Supply.Sign() > 0 && params.Issuer.IsZero() {
		return nil, fmt.Errorf("%w: issuer", ErrInvalidRecipient)
	}

	l := &ledger{
		txn:        manager,
		address:    params.Address,
		name:       params.Name,
		symbol:     params.Symbol,
		decimals:   params.Decimals,
		supply:     entity.CopyAmount(params.Supply),
		balances:   make(map[entity.Address]*big.Int),
		allowances: make(map[entity.Address]map[entity.Address]*big.Int),
	}
	if params.Supply.Sign() > 0 {
		l.balances[params.Issuer] = entity.CopyAmount(params.Supply)
	}

	zap.L().With(
		zap.String("address", params.Address.String()),
		zap.String("symbol", params.Symbol),
		zap.String("supply", params.Supply.String()),
		zap.String("issuer", params.Issuer.String()),
	).Info("Ledger: Issued supply")

	return l, nil
}

func (l *ledger) Address() entity.Address {
	return l.address
}

func (l *ledger) Name() string {
	return l.name
}

func (l *ledger) Symbol() string {
	return l.symbol
}

func (l *ledger) Decimals() int32 {
	return l.decimals
}

func (l *ledger) TotalSupply(ctx context.Context) (*big.Int, error) {
	return entity.CopyAmount(l.supply), nil
}

func (l *ledger) BalanceOf(ctx context.Context, owner entity.Address) (balance *big.Int, err error) {
	err = l.txn.View(ctx, func() error {
		balance = entity.CopyAmount(l.balances[owner])
		return nil
	})

	return
}

func (l *ledger) Allowance(ctx context.Context, owner, spender entity.Address) (allowance *big.Int, err error) {
	err = l.txn.View(ctx, func() error {
		allowance = entity.CopyAmount(l.allowances[owner][spender])
		return nil
	})

	return
}

func (l *ledger) Transfer(ctx context.Context, from, to entity.Address, amount *big.Int) error {
	return l.txn.Execute(ctx, "ledger.transfer", func(ctx context.Context) error {
		return l.transfer(ctx, from, to, amount)
	})
}

func (l *ledger) TransferFrom(ctx context.Context, spender, from, to entity.Address, amount *big.Int) error {
	return l.txn.Execute(ctx, "ledger.transferFrom", func(ctx context.Context) error {
		if err := validAmount(amount); err != nil {
			return err
		}

		allowance := entity.CopyAmount(l.allowances[from][spender])
		if allowance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s approved %s, needs %s", ErrInsufficientAllowance, spender, allowance, amount)
		}
		l.setAllowance(ctx, from, spender, new(big.Int).Sub(allowance, amount))

		return l.transfer(ctx, from, to, amount)
	})
}

func (l *ledger) Approve(ctx context.Context, owner, spender entity.Address, amount *big.Int) error {
	return l.txn.Execute(ctx, "ledger.approve", func(ctx context.Context) error {
		if err := validAmount(amount); err != nil {
			return err
		}
		if spender.IsZero() {
			return ErrInvalidSpender
		}

		l.setAllowance(ctx, owner, spender, entity.CopyAmount(amount))

		zap.L().With(
			zap.String("owner", owner.String()),
			zap.String("spender", spender.String()),
			zap.String("amount", amount.String()),
		).Debug("Ledger: Approval")

		return nil
	})
}

func (l *ledger) transfer(ctx context.Context, from, to entity.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	balance := entity.CopyAmount(l.balances[from])
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, balance, amount)
	}

	l.setBalance(ctx, from, new(big.Int).Sub(balance, amount))
	l.setBalance(ctx, to, new(big.Int).Add(entity.CopyAmount(l.balances[to]), amount))

	zap.L().With(
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("amount", amount.String()),
	).Debug("Ledger: Transfer")

	return nil
}

func (l *ledger) setBalance(ctx context.Context, owner entity.Address, balance *big.Int) {
	prev, existed := l.balances[owner]
	l.balances[owner] = balance

	txn.OnRollback(ctx, func() {
		if existed {
			l.balances[owner] = prev
		} else {
			delete(l.balances, owner)
		}
	})
}

func (l *ledger) setAllowance(ctx context.Context, owner, spender entity.Address, allowance *big.Int) {
	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[entity.Address]*big.Int)
		l.allowances[owner] = spenders
		txn.OnRollback(ctx, func() { delete(l.allowances, owner) })
	}
	prev, existed := spenders[spender]
	spenders[spender] = allowance

	txn.OnRollback(ctx, func() {
		if existed {
			spenders[spender] = prev
		} else {
			delete(spenders, spender)
		}
	})
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	return nil
}
