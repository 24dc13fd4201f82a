// Package psclient exposes the SDK entry point: a Client wired with the
// external collaborators (chain reference, token directory, balance
// watcher, transaction submitter, stream discoverer) from which stream
// drafts are created.
package psclient

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/paystream/sdk-go/core/draft"
	"github.com/paystream/sdk-go/core/logging"
	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

// Client holds the configured collaborators for stream creation.
type Client struct {
	Account  util.EthereumAddress `validate:"required"`
	Contract util.EthereumAddress `validate:"required"`

	Chain     types.ChainReference       `validate:"required"`
	Directory types.TokenDirectory       `validate:"required"`
	Submitter types.TransactionSubmitter `validate:"required"`

	Watcher    types.BalanceWatcher
	Discoverer types.StreamDiscoverer
	GasPrice   types.GasPriceProvider

	clock           types.Clock
	secondsPerBlock *apd.Decimal
}

// Option configures a Client.
type Option func(*Client)

// NewClient builds and validates a client for the given sender account and
// stream contract address.
func NewClient(ctx context.Context, account, contractAddress string, options ...Option) (*Client, error) {
	sender, err := util.NewEthereumAddressFromString(account)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	contract, err := util.NewEthereumAddressFromString(contractAddress)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	c := &Client{
		Account:  sender,
		Contract: contract,
	}
	for _, option := range options {
		option(c)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	return c, nil
}

// Validate checks the client wiring.
func (c *Client) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// WithChainReference wires the chain reference provider.
func WithChainReference(chain types.ChainReference) Option {
	return func(c *Client) { c.Chain = chain }
}

// WithTokenDirectory wires the address/symbol directory.
func WithTokenDirectory(directory types.TokenDirectory) Option {
	return func(c *Client) { c.Directory = directory }
}

// WithSubmitter wires the transaction submitter.
func WithSubmitter(submitter types.TransactionSubmitter) Option {
	return func(c *Client) { c.Submitter = submitter }
}

// WithBalanceWatcher wires the push-based balance/allowance watcher.
func WithBalanceWatcher(watcher types.BalanceWatcher) Option {
	return func(c *Client) { c.Watcher = watcher }
}

// WithDiscoverer wires the post-submission stream discovery subscription.
func WithDiscoverer(discoverer types.StreamDiscoverer) Option {
	return func(c *Client) { c.Discoverer = discoverer }
}

// WithGasPriceProvider wires the gas price lookup.
func WithGasPriceProvider(provider types.GasPriceProvider) Option {
	return func(c *Client) { c.GasPrice = provider }
}

// WithClock injects the time source used for the minimum start time.
func WithClock(clock types.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithSecondsPerBlock overrides the average block time estimate.
func WithSecondsPerBlock(seconds *apd.Decimal) Option {
	return func(c *Client) { c.secondsPerBlock = seconds }
}

// WithLogger replaces the SDK logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { logging.SetLogger(logger) }
}

// Address returns the configured sender account.
func (c *Client) Address() util.EthereumAddress {
	return c.Account
}

// DraftOptions carries the optional lifecycle callbacks for a draft.
type DraftOptions struct {
	OnTransactionHash func(txHash string)
	OnSettled         func(streamID string)
}

// NewDraft creates a stream draft state machine wired with the client's
// collaborators and reconciles it with the current account context.
func (c *Client) NewDraft(ctx context.Context, opts DraftOptions) (*draft.Machine, error) {
	machine, err := draft.NewMachine(draft.Config{
		Account:           c.Account,
		ContractAddress:   c.Contract,
		Chain:             c.Chain,
		Directory:         c.Directory,
		Submitter:         c.Submitter,
		Watcher:           c.Watcher,
		Discoverer:        c.Discoverer,
		GasPrice:          c.GasPrice,
		Clock:             c.clock,
		SecondsPerBlock:   c.secondsPerBlock,
		OnTransactionHash: opts.OnTransactionHash,
		OnSettled:         opts.OnSettled,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := machine.Reconcile(ctx, c.Account); err != nil {
		return nil, errors.WithStack(err)
	}
	return machine, nil
}
