package contractsapi

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/paystream/sdk-go/core/types"
)

// CreateStreamSignature is the canonical signature of the stream contract's
// create call. The argument order and integer widths are part of the
// on-chain contract and must not change.
const CreateStreamSignature = "createStream(address,address,address,uint256,uint256,uint256,uint256)"

// CreateStreamABI defines the ABI argument layout for createStream:
// (sender, recipient, token, startBlock, stopBlock, deposit, interval)
var CreateStreamABI abi.Arguments

// createStreamSelector is the 4-byte method id prefixed to the packed args.
var createStreamSelector []byte

func init() {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create address ABI type: %v", err))
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create uint256 ABI type: %v", err))
	}

	CreateStreamABI = abi.Arguments{
		{Type: addressType, Name: "sender"},
		{Type: addressType, Name: "recipient"},
		{Type: addressType, Name: "token_address"},
		{Type: uint256Type, Name: "start_block"},
		{Type: uint256Type, Name: "stop_block"},
		{Type: uint256Type, Name: "payment"},
		{Type: uint256Type, Name: "interval"},
	}
	createStreamSelector = crypto.Keccak256([]byte(CreateStreamSignature))[:4]
}

// PackCreateStream ABI-encodes the full createStream calldata, selector
// included. Submitter implementations use this to build the transaction.
func PackCreateStream(params types.CreateStreamParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	packed, err := CreateStreamABI.Pack(
		params.Sender.Common(),
		params.Recipient.Common(),
		params.Token.Common(),
		new(big.Int).SetUint64(params.StartBlock),
		new(big.Int).SetUint64(params.StopBlock),
		params.Deposit,
		new(big.Int).SetUint64(params.IntervalBlocks),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack createStream arguments")
	}

	calldata := make([]byte, 0, len(createStreamSelector)+len(packed))
	calldata = append(calldata, createStreamSelector...)
	calldata = append(calldata, packed...)
	return calldata, nil
}

// CreateStreamInput carries everything a submission needs.
type CreateStreamInput struct {
	Params    types.CreateStreamParams
	Submitter types.TransactionSubmitter `validate:"required"`
	GasPrice  *big.Int
}

// Validate checks the input before submission.
func (i *CreateStreamInput) Validate() error {
	if i.Submitter == nil {
		return errors.New("transaction submitter is required")
	}
	if i.GasPrice == nil || i.GasPrice.Sign() <= 0 {
		return errors.New("gas price is required")
	}
	return i.Params.Validate()
}

// SubmitCreateStream validates the parameter tuple and hands it to the
// transaction submitter, returning the transaction hash.
func SubmitCreateStream(ctx context.Context, input CreateStreamInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", errors.WithStack(err)
	}
	txHash, err := input.Submitter.SubmitCreateStream(ctx, input.Params, input.GasPrice)
	if err != nil {
		return "", errors.Wrap(err, "failed to submit createStream")
	}
	return txHash, nil
}
