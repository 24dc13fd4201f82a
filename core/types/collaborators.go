package types

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/paystream/sdk-go/core/util"
)

// BlockRef is the chain reference used to anchor block-time estimation:
// the latest observed block number and its timestamp.
type BlockRef struct {
	Number    uint64
	Timestamp int64 // unix seconds, chain time
}

// ChainReference provides the current chain anchor for block estimation.
type ChainReference interface {
	// Reference returns the latest observed block number and timestamp.
	Reference(ctx context.Context) (BlockRef, error)
}

// TokenBalance is a balance or allowance in smallest units, together with
// the token's decimals.
type TokenBalance struct {
	Decimals uint8
	Value    *apd.Decimal
}

// BalanceWatcher requests push-based balance and allowance updates for a
// (token, owner) pair. Updates arrive asynchronously through the draft
// machine's OnBalance/OnAllowance; the engine tolerates their absence and
// re-validates when they land.
type BalanceWatcher interface {
	WatchBalance(ctx context.Context, tokenAddress string, owner util.EthereumAddress) error
	WatchAllowance(ctx context.Context, spender util.EthereumAddress, tokenAddress string, owner util.EthereumAddress) error
}

// TokenDirectory maps token addresses to symbols and back, and owns the
// accepted-token allowlist plus the default token.
type TokenDirectory interface {
	SymbolFor(tokenAddress string) (string, bool)
	AddressFor(symbol string) (string, bool)
	AcceptedTokens() []string
	DefaultToken() (symbol string, address string)
}

// TransactionSubmitter broadcasts the final createStream call. It returns
// the transaction hash once the signer has accepted the call; rejection,
// network failure and revert all surface as errors.
type TransactionSubmitter interface {
	SubmitCreateStream(ctx context.Context, params CreateStreamParams, gasPrice *big.Int) (txHash string, err error)
}

// StreamSubscription is a cancellable handle on the post-submission stream
// discovery. The draft machine owns it and closes it on reset or terminal
// state.
type StreamSubscription interface {
	// StreamIDs yields the identifier of the newly created stream once the
	// indexer has seen it.
	StreamIDs() <-chan string
	Err() <-chan error
	Unsubscribe()
}

// StreamDiscoverer opens a discovery subscription for streams created by
// sender at or after blockNumber.
type StreamDiscoverer interface {
	SubscribeStreamID(ctx context.Context, blockNumber uint64, sender util.EthereumAddress) (StreamSubscription, error)
}

// GasPriceProvider suggests a gas price for the submission. Failures are
// recovered locally with a fixed default; they never block a submit.
type GasPriceProvider interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Clock abstracts "now" so the minimum start time is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
