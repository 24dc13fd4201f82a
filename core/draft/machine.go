// Package draft owns the mutable stream draft and its submission
// lifecycle. Every field change runs one explicit recompute step, deriving
// duration, then deposit, then the full validation map; there are no
// hidden recompute cascades. Public operations are serialized with a
// mutex, so a single draft never sees concurrent transitions.
package draft

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/paystream/sdk-go/core/blocktime"
	"github.com/paystream/sdk-go/core/deposit"
	"github.com/paystream/sdk-go/core/logging"
	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
	"github.com/paystream/sdk-go/core/validation"
)

// Config wires the machine's collaborators. Account, contract, chain
// reference, directory and submitter are required; the rest have working
// defaults or are optional.
type Config struct {
	Account         util.EthereumAddress
	ContractAddress util.EthereumAddress

	Chain      types.ChainReference
	Directory  types.TokenDirectory
	Submitter  types.TransactionSubmitter
	Watcher    types.BalanceWatcher
	Discoverer types.StreamDiscoverer
	GasPrice   types.GasPriceProvider
	Clock      types.Clock

	// SecondsPerBlock overrides the default mainnet block time estimate.
	SecondsPerBlock *apd.Decimal

	// OnTransactionHash fires once the submitter acknowledged the call.
	OnTransactionHash func(txHash string)
	// OnSettled fires when the created stream's identifier is discovered;
	// navigation is the caller's concern.
	OnSettled func(streamID string)
}

// Validate checks that all required collaborators are wired.
func (c *Config) Validate() error {
	if c.Account.IsZero() {
		return errors.New("account is required")
	}
	if c.ContractAddress.IsZero() {
		return errors.New("contract address is required")
	}
	if c.Chain == nil {
		return errors.New("chain reference is required")
	}
	if c.Directory == nil {
		return errors.New("token directory is required")
	}
	if c.Submitter == nil {
		return errors.New("transaction submitter is required")
	}
	return nil
}

// Machine is the stream draft state machine.
type Machine struct {
	mu sync.Mutex

	cfg             Config
	clock           types.Clock
	secondsPerBlock *apd.Decimal

	draft      types.StreamDraft
	vctx       *validation.Context
	rejections types.RejectionMap

	sub types.StreamSubscription
}

// NewMachine builds a machine with an initial draft. Call Reconcile before
// the first field change to seed the default token and minimum start time.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	secondsPerBlock := cfg.SecondsPerBlock
	if secondsPerBlock == nil {
		secondsPerBlock = blocktime.DefaultMainnetBlockTime
	}

	m := &Machine{
		cfg:             cfg,
		clock:           clock,
		secondsPerBlock: secondsPerBlock,
		vctx:            validation.NewContext(cfg.Directory.AcceptedTokens(), cfg.ContractAddress.Address()),
	}
	m.vctx.Account = cfg.Account.Address()
	m.draft = m.initialDraft()
	m.rejections = validation.EvaluateAll(&m.draft, m.vctx)
	return m, nil
}

func (m *Machine) initialDraft() types.StreamDraft {
	symbol, _ := m.cfg.Directory.DefaultToken()
	return types.StreamDraft{
		TokenSymbol: symbol,
		Status:      types.StatusIdle,
	}
}

// Reconcile resynchronizes the draft with the external reference context:
// the connected account and the directory's default token. It re-seeds the
// token address while the user still has the default token selected, and
// sets the minimum and initial start time. Invoke it whenever the account
// or network changes.
func (m *Machine) Reconcile(ctx context.Context, account util.EthereumAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg.Account = account
	m.vctx.Account = account.Address()

	symbol, address := m.cfg.Directory.DefaultToken()
	if m.draft.TokenAddress != address && m.draft.TokenSymbol == symbol {
		m.draft.TokenAddress = address
	}

	if m.draft.MinTime == nil {
		minTime := deposit.MinStartTime(m.clock)
		m.draft.MinTime = &minTime
	}
	if m.draft.StartTime == nil {
		start := *m.draft.MinTime
		m.draft.StartTime = &start
	}

	if err := m.watchTokenLocked(ctx, m.draft.TokenAddress); err != nil {
		return err
	}
	m.recomputeLocked()
	return nil
}

// SetToken selects a token by address, resolves its symbol and starts
// watching its balance and allowance.
func (m *Machine) SetToken(ctx context.Context, tokenAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draft.TokenAddress = tokenAddress
	if symbol, ok := m.cfg.Directory.SymbolFor(tokenAddress); ok {
		m.draft.TokenSymbol = symbol
	}
	if err := m.watchTokenLocked(ctx, tokenAddress); err != nil {
		return err
	}
	m.recomputeLocked()
	return nil
}

// SetPayment records the per-interval payment and the raw label it was
// parsed from.
func (m *Machine) SetPayment(payment *apd.Decimal, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Payment = payment
	m.draft.PaymentLabel = label
	m.recomputeLocked()
}

// SetInterval selects the payment interval.
func (m *Machine) SetInterval(interval types.Interval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Interval = interval
	m.recomputeLocked()
}

// SetStartTime sets the stream start, clamped to the minimum start time.
func (m *Machine) SetStartTime(startTime civil.DateTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft.MinTime != nil && startTime.In(time.UTC).Before(m.draft.MinTime.In(time.UTC)) {
		startTime = *m.draft.MinTime
	}
	m.draft.StartTime = &startTime
	m.recomputeLocked()
}

// SetStopTime sets the stream stop time.
func (m *Machine) SetStopTime(stopTime civil.DateTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.StopTime = &stopTime
	m.recomputeLocked()
}

// SetRecipient sets the recipient address string.
func (m *Machine) SetRecipient(recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Recipient = recipient
	m.recomputeLocked()
}

// OnBalance receives a pushed balance update from the watcher and
// re-validates the draft.
func (m *Machine) OnBalance(tokenAddress, owner string, balance types.TokenBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vctx.SetBalance(tokenAddress, owner, balance)
	m.recomputeLocked()
}

// OnAllowance receives a pushed allowance update from the watcher and
// re-validates the draft.
func (m *Machine) OnAllowance(spender, tokenAddress, owner string, allowance types.TokenBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vctx.SetAllowance(spender, tokenAddress, owner, allowance)
	m.recomputeLocked()
}

// Draft returns a snapshot of the current draft.
func (m *Machine) Draft() types.StreamDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Rejections returns the current per-field rejection map.
func (m *Machine) Rejections() types.RejectionMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(types.RejectionMap, len(m.rejections))
	for field, rej := range m.rejections {
		out[field] = rej
	}
	return out
}

// Submittable reports whether a submit would currently proceed past
// validation.
func (m *Machine) Submittable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejections.Clean() && validation.IsSubmittable(&m.draft, m.vctx)
}

// Status returns the current submission status.
func (m *Machine) Status() types.SubmissionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Status
}

// Reset returns the machine to idle with a fresh draft and closes any
// in-flight discovery subscription.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeSubscriptionLocked()
	m.draft = m.initialDraft()
	m.rejections = validation.EvaluateAll(&m.draft, m.vctx)
}

// watchTokenLocked asks the watcher for balance and allowance pushes on the
// given token. The watcher is optional; without one, balance validation
// simply stays in the "unknown" state.
func (m *Machine) watchTokenLocked(ctx context.Context, tokenAddress string) error {
	if m.cfg.Watcher == nil || tokenAddress == "" || tokenAddress == types.NativeToken {
		return nil
	}
	if err := m.cfg.Watcher.WatchBalance(ctx, tokenAddress, m.cfg.Account); err != nil {
		return errors.Wrap(err, "failed to watch balance")
	}
	if err := m.cfg.Watcher.WatchAllowance(ctx, m.cfg.ContractAddress, tokenAddress, m.cfg.Account); err != nil {
		return errors.Wrap(err, "failed to watch allowance")
	}
	return nil
}

// recomputeLocked is the single derivation step run after every mutation:
// duration, then deposit, then the validation map.
func (m *Machine) recomputeLocked() {
	duration, realignedStop, err := deposit.RecomputeDuration(m.draft.StartTime, m.draft.StopTime, m.draft.Interval)
	if err != nil {
		logging.Logger.Warn("duration recompute failed", zap.Error(err))
	} else {
		m.draft.DurationMinutes = duration
		m.draft.StopTime = realignedStop
	}

	dep, err := deposit.RecomputeDeposit(m.draft.DurationMinutes, m.draft.Interval, m.draft.Payment, m.draft.TokenAddress)
	if err != nil {
		logging.Logger.Warn("deposit recompute failed", zap.Error(err))
	} else {
		m.draft.Deposit = dep
	}

	m.rejections = validation.EvaluateAll(&m.draft, m.vctx)
}

func (m *Machine) closeSubscriptionLocked() {
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
}

func (m *Machine) failLocked(err error) {
	m.draft.Status = types.StatusFailed
	m.draft.SubmissionError = err.Error()
	logging.Logger.Warn("stream submission failed", zap.Error(err))
}
