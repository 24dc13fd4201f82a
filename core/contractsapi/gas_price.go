package contractsapi

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/paystream/sdk-go/core/logging"
	"github.com/paystream/sdk-go/core/types"
)

// DefaultGasPrice is used when no gas price can be fetched: 8 gwei.
var DefaultGasPrice = big.NewInt(8_000_000_000)

// GasPricePremium is added on top of a successfully fetched price so the
// stream-creation transaction is not left behind by a fee spike: 1 gwei.
var GasPricePremium = big.NewInt(1_000_000_000)

// SuggestGasPrice resolves the gas price for a submission. A fetched price
// gets the premium added; any failure falls back to the default rather
// than aborting the submission.
func SuggestGasPrice(ctx context.Context, provider types.GasPriceProvider) *big.Int {
	if provider == nil {
		return new(big.Int).Set(DefaultGasPrice)
	}
	price, err := provider.SuggestGasPrice(ctx)
	if err != nil || price == nil || price.Sign() <= 0 {
		logging.Logger.Warn("gas price lookup failed, using default",
			zap.Error(err),
			zap.String("default", DefaultGasPrice.String()))
		return new(big.Int).Set(DefaultGasPrice)
	}
	return new(big.Int).Add(price, GasPricePremium)
}
