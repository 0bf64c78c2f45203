package entity

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"math/big"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

func ParseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}

	return amount, nil
}

// FormatAmount renders raw token units using the token's decimals, e.g. 4000 with 2 decimals is "40".
func FormatAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}

	return decimal.NewFromBigInt(amount, -decimals).String()
}

func CopyAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(amount)
}
