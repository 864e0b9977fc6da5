package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradegate/internal/audit"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
	"tradegate/internal/killswitch"
	"tradegate/internal/observability"
)

// TokenTTL is how long a granted token remains valid before expiring.
const TokenTTL = 5 * time.Minute

// AutoApprovalPolicy decides, at request() time, whether a proposal
// qualifies for immediate approval without a human in the loop. See
// internal/autoapproval for the concrete implementation.
type AutoApprovalPolicy interface {
	Evaluate(ctx context.Context, proposal contracts.OrderProposal) (allow bool, reason string)
}

// Service implements the propose -> simulate -> risk -> approve/request
// -> grant/deny state machine.
type Service struct {
	store       *Store
	audit       *audit.Logger
	killSwitch  *killswitch.Switch
	autoApprove AutoApprovalPolicy
}

// NewService wires a Service. autoApprove may be nil to disable auto-approval.
func NewService(store *Store, auditLogger *audit.Logger, killSwitch *killswitch.Switch, autoApprove AutoApprovalPolicy) *Service {
	return &Service{store: store, audit: auditLogger, killSwitch: killSwitch, autoApprove: autoApprove}
}

// Store inserts a new PROPOSED proposal.
func (s *Service) Store(ctx context.Context, intent contracts.OrderIntent) (contracts.OrderProposal, error) {
	hash, err := intent.Hash()
	if err != nil {
		return contracts.OrderProposal{}, coreerr.Wrap(coreerr.Validation, "approval: hash intent", err)
	}
	now := time.Now().UTC()
	proposal := contracts.OrderProposal{
		ProposalID: uuid.NewString(),
		Intent:     intent,
		IntentHash: hash,
		State:      contracts.StateProposed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, auditErr := s.logEvent(ctx, contracts.EventProposalCreated, proposal, nil)
	if auditErr != nil {
		return contracts.OrderProposal{}, auditErr
	}
	proposal.CorrelationID = observability.CorrelationIDFromContext(ctx)

	if err := s.store.Insert(ctx, proposal); err != nil {
		return contracts.OrderProposal{}, err
	}
	return proposal, nil
}

// CreateWithEvaluation stores a new proposal and immediately advances it
// through SIMULATED to RISK_APPROVED or RISK_REJECTED, attaching the
// caller-supplied simulation and risk decision. Used by the
// /api/v1/proposals/create endpoint, which receives simulation and risk
// results computed by the caller rather than recomputing them here.
func (s *Service) CreateWithEvaluation(ctx context.Context, intent contracts.OrderIntent, simulation contracts.SimulationResult, risk contracts.RiskDecision) (contracts.OrderProposal, error) {
	proposal, err := s.Store(ctx, intent)
	if err != nil {
		return contracts.OrderProposal{}, err
	}

	proposal.Simulation = &simulation
	proposal.RiskDecision = &risk
	proposal = proposal.WithState(contracts.StateSimulated, time.Now().UTC())
	if err := s.store.Replace(ctx, proposal); err != nil {
		return contracts.OrderProposal{}, err
	}
	if _, err := s.logEvent(ctx, contracts.EventOrderSimulated, proposal, nil); err != nil {
		return contracts.OrderProposal{}, err
	}

	next := contracts.StateRiskApproved
	if risk.Decision == contracts.RiskReject {
		next = contracts.StateRiskRejected
	}
	return s.AdvanceState(ctx, proposal.ProposalID, next, contracts.EventRiskGateEvaluated, map[string]any{"decision": risk.Decision, "reason": risk.Reason})
}

// AdvanceState validates the transition and persists it, always auditing.
func (s *Service) AdvanceState(ctx context.Context, proposalID string, next contracts.OrderState, eventType contracts.EventType, extra map[string]any) (contracts.OrderProposal, error) {
	proposal, err := s.store.Get(ctx, proposalID)
	if err != nil {
		return contracts.OrderProposal{}, err
	}
	if !contracts.CanTransition(proposal.State, next) {
		return contracts.OrderProposal{}, coreerr.Newf(coreerr.State, "approval: cannot transition %s -> %s", proposal.State, next)
	}

	updated := proposal.WithState(next, time.Now().UTC())
	if err := s.store.Replace(ctx, updated); err != nil {
		return contracts.OrderProposal{}, err
	}

	if _, err := s.logEvent(ctx, eventType, updated, extra); err != nil {
		return contracts.OrderProposal{}, err
	}
	return updated, nil
}

// SetBrokerOrderID persists the broker-assigned order id on an existing
// proposal without changing its state. Used by the Order Submitter right
// after SubmitOrder returns, so the proposal record carries the id that
// Poll later looks up order status by.
func (s *Service) SetBrokerOrderID(ctx context.Context, proposalID, brokerOrderID string) (contracts.OrderProposal, error) {
	proposal, err := s.store.Get(ctx, proposalID)
	if err != nil {
		return contracts.OrderProposal{}, err
	}
	proposal.BrokerOrderID = brokerOrderID
	if err := s.store.Replace(ctx, proposal); err != nil {
		return contracts.OrderProposal{}, err
	}
	return proposal, nil
}

// Request moves RISK_APPROVED -> APPROVAL_REQUESTED, unless an
// AutoApprovalPolicy allows it, in which case it moves directly to
// APPROVAL_GRANTED with a freshly issued token.
func (s *Service) Request(ctx context.Context, proposalID string) (contracts.OrderProposal, *contracts.ApprovalToken, error) {
	proposal, err := s.store.Get(ctx, proposalID)
	if err != nil {
		return contracts.OrderProposal{}, nil, err
	}

	if s.autoApprove != nil && !s.killSwitchEnabled() {
		if allow, reason := s.autoApprove.Evaluate(ctx, proposal); allow {
			granted, token, err := s.grantLocked(ctx, proposal, reason, "auto-approval")
			if err != nil {
				return contracts.OrderProposal{}, nil, err
			}
			if _, err := s.logEvent(ctx, contracts.EventAutoApprovalGranted, granted, map[string]any{"reason": reason}); err != nil {
				return contracts.OrderProposal{}, nil, err
			}
			return granted, token, nil
		}
		if _, err := s.logEvent(ctx, contracts.EventAutoApprovalSkipped, proposal, nil); err != nil {
			return contracts.OrderProposal{}, nil, err
		}
	}

	updated, err := s.AdvanceState(ctx, proposalID, contracts.StateApprovalRequested, contracts.EventApprovalRequested, nil)
	return updated, nil, err
}

// Grant moves APPROVAL_REQUESTED -> APPROVAL_GRANTED and issues a token
// bound to the proposal's intent hash.
func (s *Service) Grant(ctx context.Context, proposalID, reason, actor string) (contracts.OrderProposal, *contracts.ApprovalToken, error) {
	if reason == "" || actor == "" {
		return contracts.OrderProposal{}, nil, coreerr.Validationf("approval: grant requires both reason and actor")
	}
	if s.killSwitchEnabled() {
		return contracts.OrderProposal{}, nil, coreerr.Policyf("KILL_SWITCH_ACTIVE: grant is blocked").WithRules("KS")
	}

	proposal, err := s.store.Get(ctx, proposalID)
	if err != nil {
		return contracts.OrderProposal{}, nil, err
	}
	if proposal.State != contracts.StateApprovalRequested {
		return contracts.OrderProposal{}, nil, coreerr.Newf(coreerr.State, "approval: cannot grant a %s proposal", proposal.State)
	}
	granted, token, err := s.grantLocked(ctx, proposal, reason, actor)
	if err != nil {
		return contracts.OrderProposal{}, nil, err
	}
	if _, err := s.logEvent(ctx, contracts.EventApprovalGranted, granted, map[string]any{"reason": reason, "actor": actor}); err != nil {
		return contracts.OrderProposal{}, nil, err
	}
	return granted, token, nil
}

func (s *Service) grantLocked(ctx context.Context, proposal contracts.OrderProposal, reason, actor string) (contracts.OrderProposal, *contracts.ApprovalToken, error) {
	if !contracts.CanTransition(proposal.State, contracts.StateApprovalGranted) {
		return contracts.OrderProposal{}, nil, coreerr.Newf(coreerr.State, "approval: cannot transition %s -> %s", proposal.State, contracts.StateApprovalGranted)
	}

	tokenID, err := generateTokenID()
	if err != nil {
		return contracts.OrderProposal{}, nil, coreerr.Wrap(coreerr.Internal, "approval: issue token", err)
	}
	now := time.Now().UTC()
	token := contracts.ApprovalToken{
		TokenID:    tokenID,
		ProposalID: proposal.ProposalID,
		IntentHash: proposal.IntentHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(TokenTTL),
	}
	s.store.PutToken(ctx, token)

	updated := proposal.WithState(contracts.StateApprovalGranted, now)
	updated.GrantedTokenID = tokenID
	updated.ApprovalReason = reason
	if err := s.store.Replace(ctx, updated); err != nil {
		return contracts.OrderProposal{}, nil, err
	}
	return updated, &token, nil
}

// Deny moves APPROVAL_REQUESTED -> APPROVAL_DENIED. reason is required.
func (s *Service) Deny(ctx context.Context, proposalID, reason, actor string) (contracts.OrderProposal, error) {
	if reason == "" {
		return contracts.OrderProposal{}, coreerr.Validationf("approval: deny requires a reason")
	}
	return s.AdvanceState(ctx, proposalID, contracts.StateApprovalDenied, contracts.EventApprovalDenied, map[string]any{"reason": reason, "actor": actor})
}

// ValidateToken checks existence, not-used, not-expired, and hash match.
func (s *Service) ValidateToken(ctx context.Context, tokenID, intentHash string, now time.Time) bool {
	token, err := s.store.GetToken(ctx, tokenID)
	if err != nil {
		return false
	}
	return token.IsValid(now) && token.IntentHash == intentHash
}

// ConsumeToken atomically marks tokenID used.
func (s *Service) ConsumeToken(ctx context.Context, tokenID string, now time.Time) (contracts.ApprovalToken, error) {
	return s.store.ConsumeToken(ctx, tokenID, now)
}

// Pending returns RISK_APPROVED and APPROVAL_REQUESTED proposals.
func (s *Service) Pending(ctx context.Context, limit int) []contracts.OrderProposal {
	return s.store.Pending(ctx, limit)
}

// Get returns the proposal with id.
func (s *Service) Get(ctx context.Context, proposalID string) (contracts.OrderProposal, error) {
	return s.store.Get(ctx, proposalID)
}

func (s *Service) killSwitchEnabled() bool {
	return s.killSwitch != nil && s.killSwitch.IsEnabled()
}

func (s *Service) logEvent(ctx context.Context, eventType contracts.EventType, proposal contracts.OrderProposal, extra map[string]any) (context.Context, error) {
	if s.audit == nil {
		return ctx, nil
	}
	data := map[string]any{
		"proposal_id": proposal.ProposalID,
		"state":       proposal.State,
	}
	for k, v := range extra {
		data[k] = v
	}
	return s.audit.Log(ctx, eventType, data)
}
