package exchange

import (
	"fmt"
	"math/big"
)

var hundred = big.NewInt(100)

// SplitFee divides price into the platform fee and the seller proceeds. The fee is
// floored, so proceeds absorb the remainder and fee + proceeds == price.
func SplitFee(price *big.Int, feePercent uint64) (fee *big.Int, proceeds *big.Int, err error) {
	if feePercent > 100 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidFeePercent, feePercent)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, nil, ErrInvalidPrice
	}

	fee = new(big.Int).Mul(price, new(big.Int).SetUint64(feePercent))
	fee.Quo(fee, hundred)
	proceeds = new(big.Int).Sub(price, fee)

	return fee, proceeds, nil
}
