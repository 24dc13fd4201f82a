package types

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/paystream/sdk-go/core/util"
)

// CreateStreamParams is the bit-exact parameter tuple of the on-chain
// createStream call. Deposit is the per-interval payment converted to
// smallest units (amount * 10^decimals, truncated to integer).
type CreateStreamParams struct {
	Sender         util.EthereumAddress
	Recipient      util.EthereumAddress
	Token          util.EthereumAddress
	StartBlock     uint64
	StopBlock      uint64
	Deposit        *big.Int
	IntervalBlocks uint64
}

// Validate checks the tuple before it is handed to the submitter.
func (p *CreateStreamParams) Validate() error {
	if p.Sender.IsZero() {
		return errors.New("sender is required")
	}
	if p.Recipient.IsZero() {
		return errors.New("recipient is required")
	}
	if p.Sender.Equal(p.Recipient) {
		return errors.New("sender and recipient must differ")
	}
	if p.Token.IsZero() {
		return errors.New("token is required")
	}
	if p.StopBlock < p.StartBlock {
		return errors.New("stop block is before start block")
	}
	if p.Deposit == nil || p.Deposit.Sign() <= 0 {
		return errors.New("deposit must be positive")
	}
	if p.IntervalBlocks == 0 {
		return errors.New("interval in blocks must be positive")
	}
	return nil
}
