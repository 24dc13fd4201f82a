package draft

import (
	"context"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/paystream/sdk-go/core/blocktime"
	"github.com/paystream/sdk-go/core/contractsapi"
	"github.com/paystream/sdk-go/core/logging"
	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
	"github.com/paystream/sdk-go/core/validation"
)

// Submit drives the submission lifecycle. It is a no-op while a previous
// submission is in flight or while any hard validator rejects the draft.
// A token that still needs a spending approval parks the machine in
// awaiting-approval; the caller resolves the approval and invokes Submit
// again. Otherwise the start/stop blocks are computed from a fresh chain
// reference, the payment is converted to smallest units, and the parameter
// tuple is handed to the transaction submitter.
//
// Validation outcomes are not errors: they leave the draft unsent and
// return nil. The returned error mirrors what is captured on the draft as
// the submission error.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()

	if m.draft.Status.InFlight() {
		m.mu.Unlock()
		return nil
	}

	m.draft.Submitted = true
	m.draft.SubmissionError = ""
	m.draft.Status = types.StatusValidating
	m.recomputeLocked()

	if !m.rejections.Clean() || !validation.IsSubmittable(&m.draft, m.vctx) {
		m.draft.Status = types.StatusIdle
		m.mu.Unlock()
		return nil
	}

	if validation.NeedsApproval(&m.draft, m.vctx) {
		m.draft.Status = types.StatusAwaitingApproval
		m.mu.Unlock()
		return nil
	}

	params, ref, err := m.buildParamsLocked(ctx)
	if err != nil {
		m.failLocked(err)
		m.mu.Unlock()
		return err
	}

	gasPrice := contractsapi.SuggestGasPrice(ctx, m.cfg.GasPrice)
	m.draft.Status = types.StatusSubmitting
	m.mu.Unlock()

	// the submitter does network I/O; the lock is released so balance and
	// allowance pushes keep landing, and the in-flight status blocks a
	// concurrent Submit
	txHash, err := contractsapi.SubmitCreateStream(ctx, contractsapi.CreateStreamInput{
		Params:    params,
		Submitter: m.cfg.Submitter,
		GasPrice:  gasPrice,
	})

	m.mu.Lock()
	if err != nil {
		m.failLocked(err)
		m.mu.Unlock()
		return err
	}

	m.draft.Status = types.StatusPending
	logging.Logger.Info("stream creation submitted",
		zap.String("txHash", txHash),
		zap.Uint64("startBlock", params.StartBlock),
		zap.Uint64("stopBlock", params.StopBlock),
		zap.Any("stopTime", util.TransformOrNil(m.draft.StopTime, func(t civil.DateTime) any { return t.String() })))

	if err := m.subscribeLocked(ctx, ref.Number); err != nil {
		m.failLocked(err)
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	if m.cfg.OnTransactionHash != nil {
		m.cfg.OnTransactionHash(txHash)
	}
	return nil
}

// buildParamsLocked assembles the createStream tuple from the validated
// draft and a fresh chain reference.
func (m *Machine) buildParamsLocked(ctx context.Context) (types.CreateStreamParams, types.BlockRef, error) {
	var zero types.BlockRef

	balance, ok := m.vctx.BalanceFor(m.draft.TokenAddress, m.vctx.Account)
	if !ok {
		return types.CreateStreamParams{}, zero, errors.New("token balance unknown, cannot convert payment")
	}

	ref, err := m.cfg.Chain.Reference(ctx)
	if err != nil {
		return types.CreateStreamParams{}, zero, errors.Wrap(err, "failed to fetch chain reference")
	}

	est := blocktime.NewEstimator(ref, m.secondsPerBlock)
	startBlock, stopBlock, err := est.ComputeStartStopBlocks(*m.draft.StartTime, *m.draft.StopTime, m.draft.Interval)
	if err != nil {
		return types.CreateStreamParams{}, zero, err
	}
	intervalBlocks, err := est.IntervalInBlocks(m.draft.Interval)
	if err != nil {
		return types.CreateStreamParams{}, zero, err
	}

	payment, err := util.ToSmallestUnits(m.draft.Payment, balance.Decimals)
	if err != nil {
		return types.CreateStreamParams{}, zero, errors.Wrap(err, "failed to convert payment to smallest units")
	}

	recipient, err := util.NewEthereumAddressFromString(m.draft.Recipient)
	if err != nil {
		return types.CreateStreamParams{}, zero, err
	}
	token, err := util.NewEthereumAddressFromString(m.draft.TokenAddress)
	if err != nil {
		return types.CreateStreamParams{}, zero, err
	}

	return types.CreateStreamParams{
		Sender:         m.cfg.Account,
		Recipient:      recipient,
		Token:          token,
		StartBlock:     startBlock,
		StopBlock:      stopBlock,
		Deposit:        payment,
		IntervalBlocks: intervalBlocks,
	}, ref, nil
}

// subscribeLocked opens the stream-discovery subscription anchored at the
// reference block. Discovery is optional; without a discoverer the machine
// stays pending until reset.
func (m *Machine) subscribeLocked(ctx context.Context, blockNumber uint64) error {
	if m.cfg.Discoverer == nil {
		return nil
	}
	sub, err := m.cfg.Discoverer.SubscribeStreamID(ctx, blockNumber, m.cfg.Account)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to stream discovery")
	}
	m.closeSubscriptionLocked()
	m.sub = sub
	go m.awaitDiscovery(sub)
	return nil
}

// awaitDiscovery waits for the created stream's identifier. A subscription
// superseded by Reset is ignored, so a stale discovery can never settle a
// fresh draft.
func (m *Machine) awaitDiscovery(sub types.StreamSubscription) {
	select {
	case streamID, ok := <-sub.StreamIDs():
		if !ok {
			return
		}
		m.mu.Lock()
		if m.sub != sub {
			m.mu.Unlock()
			return
		}
		m.sub = nil
		m.draft.StreamID = streamID
		m.draft.Status = types.StatusSettled
		m.mu.Unlock()
		sub.Unsubscribe()
		if m.cfg.OnSettled != nil {
			m.cfg.OnSettled(streamID)
		}
	case err, ok := <-sub.Err():
		if !ok {
			return
		}
		m.mu.Lock()
		if m.sub != sub {
			m.mu.Unlock()
			return
		}
		m.sub = nil
		m.failLocked(errors.Wrap(err, "stream discovery failed"))
		m.mu.Unlock()
		sub.Unsubscribe()
	}
}
