// Package submitter implements the Order Submitter: the token-validated
// bridge from an APPROVAL_GRANTED proposal to a live broker order, and
// the poll loop that drives it to a terminal status against explicit
// (max_polls, interval) parameters.
package submitter

import (
	"context"
	"time"

	"tradegate/internal/approval"
	"tradegate/internal/audit"
	"tradegate/internal/broker"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
	"tradegate/internal/killswitch"
	"tradegate/internal/observability"
)

// DefaultMaxPolls and DefaultPollInterval bound the post-submit poll loop
// started by Submit; callers of Poll directly may override both.
const (
	DefaultMaxPolls     = 12
	DefaultPollInterval = 5 * time.Second
)

// Submitter wires the Approval Service to a Broker.
type Submitter struct {
	approval *approval.Service
	broker   broker.Broker
	audit    *audit.Logger
	killSwitch *killswitch.Switch
}

// New builds a Submitter.
func New(approvalSvc *approval.Service, b broker.Broker, auditLogger *audit.Logger, killSwitch *killswitch.Switch) *Submitter {
	return &Submitter{approval: approvalSvc, broker: b, audit: auditLogger, killSwitch: killSwitch}
}

// Submit validates tokenID against proposalID's intent hash, consumes it,
// places the order with the broker, transitions the proposal to
// SUBMITTED, and starts Poll in the background (detached from ctx, but
// carrying its correlation id) to drive the order to a terminal status.
// Submit itself returns as soon as the broker accepts the order; it does
// not wait for a terminal status.
//
// Failure semantics: a token-validation failure never reaches the broker.
// A broker failure after the token is consumed leaves the proposal in
// APPROVAL_GRANTED with a burned token — it cannot be retried and requires
// a new proposal rather than a retry of an already-consumed token.
func (s *Submitter) Submit(ctx context.Context, proposalID, tokenID string) (contracts.OpenOrder, error) {
	if s.killSwitch != nil && s.killSwitch.IsEnabled() {
		return contracts.OpenOrder{}, s.killSwitch.CheckOrFail("submit")
	}

	proposal, err := s.approval.Get(ctx, proposalID)
	if err != nil {
		return contracts.OpenOrder{}, err
	}
	if !s.approval.ValidateToken(ctx, tokenID, proposal.IntentHash, time.Now().UTC()) {
		return contracts.OpenOrder{}, coreerr.New(coreerr.Concurrency, "submitter: token invalid, expired, or already consumed")
	}
	if proposal.State != contracts.StateApprovalGranted {
		return contracts.OpenOrder{}, coreerr.Newf(coreerr.State, "submitter: proposal %s is %s, not APPROVAL_GRANTED", proposalID, proposal.State)
	}
	consumed, err := s.approval.ConsumeToken(ctx, tokenID, time.Now().UTC())
	if err != nil {
		return contracts.OpenOrder{}, coreerr.Wrap(coreerr.Concurrency, "submitter: token already consumed", err)
	}

	order, err := s.broker.SubmitOrder(ctx, proposal.Intent, consumed.TokenID)
	if err != nil {
		s.logEvent(ctx, contracts.EventOrderSubmissionFailed, proposal, map[string]any{"error": err.Error()})
		return contracts.OpenOrder{}, coreerr.Wrap(coreerr.Internal, "submitter: broker rejected submission", err)
	}

	if _, err := s.approval.SetBrokerOrderID(ctx, proposalID, order.BrokerOrderID); err != nil {
		return order, err
	}
	if _, err := s.approval.AdvanceState(ctx, proposalID, contracts.StateSubmitted, contracts.EventOrderSubmitted, map[string]any{"broker_order_id": order.BrokerOrderID}); err != nil {
		return order, err
	}

	pollCtx := observability.WithCorrelationID(context.Background(), observability.CorrelationIDFromContext(ctx))
	go s.Poll(pollCtx, proposalID, order.BrokerOrderID, DefaultMaxPolls, DefaultPollInterval)

	return order, nil
}

// Poll repeats broker.GetOrderStatus at interval until the order reaches a
// terminal status, max_polls is exhausted, or ctx is cancelled. On a
// terminal status it transitions the proposal and emits the matching
// audit event; on exhaustion the proposal remains SUBMITTED and an
// ORDER_POLL_EXHAUSTED warning is emitted instead of an error.
func (s *Submitter) Poll(ctx context.Context, proposalID, brokerOrderID string, maxPolls int, interval time.Duration) (contracts.OpenOrder, error) {
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last contracts.OpenOrder
	for attempt := 0; attempt < maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
			order, err := s.broker.GetOrderStatus(ctx, brokerOrderID)
			if err != nil {
				continue
			}
			last = order
			if !order.Status.IsTerminal() {
				continue
			}

			proposal, err := s.approval.Get(ctx, proposalID)
			if err != nil {
				return order, err
			}
			next, eventType := terminalTransition(order.Status)
			if contracts.CanTransition(proposal.State, next) {
				if _, err := s.approval.AdvanceState(ctx, proposalID, next, eventType, map[string]any{"broker_order_id": brokerOrderID, "filled_qty": order.FilledQty.String()}); err != nil {
					return order, err
				}
			}
			return order, nil
		}
	}

	proposal, err := s.approval.Get(ctx, proposalID)
	if err == nil {
		s.logEvent(ctx, contracts.EventOrderPollExhausted, proposal, map[string]any{"broker_order_id": brokerOrderID, "max_polls": maxPolls})
	}
	return last, nil
}

func terminalTransition(status contracts.OrderStatus) (contracts.OrderState, contracts.EventType) {
	switch status {
	case contracts.BrokerOrderFilled:
		return contracts.StateFilled, contracts.EventOrderFilled
	case contracts.BrokerOrderCancelled:
		return contracts.StateCancelled, contracts.EventOrderCancelled
	default:
		return contracts.StateRejected, contracts.EventOrderRejected
	}
}

func (s *Submitter) logEvent(ctx context.Context, eventType contracts.EventType, proposal contracts.OrderProposal, extra map[string]any) {
	if s.audit == nil {
		return
	}
	data := map[string]any{"proposal_id": proposal.ProposalID, "state": proposal.State}
	for k, v := range extra {
		data[k] = v
	}
	_, _ = s.audit.Log(ctx, eventType, data)
}
