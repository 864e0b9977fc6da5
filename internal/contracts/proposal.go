package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderState is the eleven-state order proposal lifecycle.
type OrderState string

const (
	StateProposed          OrderState = "PROPOSED"
	StateSimulated          OrderState = "SIMULATED"
	StateRiskApproved       OrderState = "RISK_APPROVED"
	StateRiskRejected       OrderState = "RISK_REJECTED"
	StateApprovalRequested  OrderState = "APPROVAL_REQUESTED"
	StateApprovalGranted    OrderState = "APPROVAL_GRANTED"
	StateApprovalDenied     OrderState = "APPROVAL_DENIED"
	StateSubmitted          OrderState = "SUBMITTED"
	StateFilled             OrderState = "FILLED"
	StateCancelled          OrderState = "CANCELLED"
	StateRejected           OrderState = "REJECTED"
)

// terminalStates admit no further transitions.
var terminalStates = map[OrderState]bool{
	StateRiskRejected:   true,
	StateApprovalDenied: true,
	StateFilled:         true,
	StateCancelled:      true,
	StateRejected:       true,
}

// IsTerminal reports whether s is one of the lifecycle's terminal states.
func (s OrderState) IsTerminal() bool { return terminalStates[s] }

// allowedTransitions enumerates the (previous, next) pairs the state
// machine admits. Skipping a state, or any pair not in this set, is a
// State-kind error.
var allowedTransitions = map[OrderState]map[OrderState]bool{
	StateProposed:         {StateSimulated: true},
	StateSimulated:        {StateRiskApproved: true, StateRiskRejected: true},
	StateRiskApproved:     {StateApprovalRequested: true, StateApprovalGranted: true},
	StateApprovalRequested: {StateApprovalGranted: true, StateApprovalDenied: true},
	StateApprovalGranted:  {StateSubmitted: true},
	StateSubmitted:        {StateFilled: true, StateCancelled: true, StateRejected: true},
}

// CanTransition reports whether moving from-to is permitted.
func CanTransition(from, to OrderState) bool {
	return allowedTransitions[from][to]
}

// OrderProposal is mutable only via successor values: every accepted
// transition produces a new OrderProposal: the Approval Service replaces
// its stored copy, it never edits one in place.
type OrderProposal struct {
	ProposalID      string           `json:"proposal_id"`
	CorrelationID   string           `json:"correlation_id"`
	Intent          OrderIntent      `json:"intent"`
	IntentHash      string           `json:"intent_hash"`
	Simulation      *SimulationResult `json:"simulation,omitempty"`
	RiskDecision    *RiskDecision     `json:"risk_decision,omitempty"`
	State           OrderState        `json:"state"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	GrantedTokenID  string            `json:"granted_token_id,omitempty"`
	ApprovalReason  string            `json:"approval_reason,omitempty"`
	BrokerOrderID   string            `json:"broker_order_id,omitempty"`
}

// WithState returns a copy transitioned to next, stamping UpdatedAt. The
// caller is responsible for checking CanTransition first.
func (p OrderProposal) WithState(next OrderState, now time.Time) OrderProposal {
	p.State = next
	p.UpdatedAt = now
	return p
}

// ApprovalToken is a single-use, time-limited credential bound to exactly
// one proposal and intent hash.
type ApprovalToken struct {
	TokenID    string     `json:"token_id"`
	ProposalID string     `json:"proposal_id"`
	IntentHash string     `json:"intent_hash"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// IsValid reports whether the token can still be consumed at now: unused
// and strictly before expiry (expiry is exclusive — a token at
// expires_at exactly is invalid).
func (t ApprovalToken) IsValid(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// MutationState is the five-state lifecycle shared by CancelIntent and
// ModifyIntent: request, then grant-or-deny, then (on grant) execution
// against the broker.
type MutationState string

const (
	MutationRequested      MutationState = "REQUESTED"
	MutationGranted        MutationState = "GRANTED"
	MutationDenied         MutationState = "DENIED"
	MutationExecuted       MutationState = "EXECUTED"
	MutationExecutionFailed MutationState = "EXECUTION_FAILED"
)

var mutationTerminal = map[MutationState]bool{
	MutationDenied:          true,
	MutationExecuted:        true,
	MutationExecutionFailed: true,
}

// IsTerminal reports whether s admits no further transitions.
func (s MutationState) IsTerminal() bool { return mutationTerminal[s] }

var mutationTransitions = map[MutationState]map[MutationState]bool{
	MutationRequested: {MutationGranted: true, MutationDenied: true},
	MutationGranted:   {MutationExecuted: true, MutationExecutionFailed: true},
}

// CanTransitionMutation reports whether moving from-to is permitted for a
// CancelIntent or ModifyIntent.
func CanTransitionMutation(from, to MutationState) bool {
	return mutationTransitions[from][to]
}

// CancelIntent mirrors OrderProposal's two-step commit for an order
// cancellation request against a live broker order.
type CancelIntent struct {
	MutationID    string        `json:"mutation_id"`
	CorrelationID string        `json:"correlation_id"`
	BrokerOrderID string        `json:"broker_order_id"`
	Reason        string        `json:"reason"`
	State         MutationState `json:"state"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// WithState returns a copy of the CancelIntent transitioned to next,
// stamping UpdatedAt. The caller is responsible for checking
// CanTransitionMutation first.
func (c CancelIntent) WithState(next MutationState, now time.Time) CancelIntent {
	c.State = next
	c.UpdatedAt = now
	return c
}

// ModifyIntent mirrors OrderProposal's two-step commit for modifying the
// parameters of a live broker order.
type ModifyIntent struct {
	MutationID    string           `json:"mutation_id"`
	CorrelationID string           `json:"correlation_id"`
	BrokerOrderID string           `json:"broker_order_id"`
	NewQuantity   *decimal.Decimal `json:"new_quantity,omitempty"`
	NewLimitPrice *decimal.Decimal `json:"new_limit_price,omitempty"`
	NewStopPrice  *decimal.Decimal `json:"new_stop_price,omitempty"`
	Reason        string           `json:"reason"`
	State         MutationState    `json:"state"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// WithState returns a copy of the ModifyIntent transitioned to next,
// stamping UpdatedAt. The caller is responsible for checking
// CanTransitionMutation first.
func (m ModifyIntent) WithState(next MutationState, now time.Time) ModifyIntent {
	m.State = next
	m.UpdatedAt = now
	return m
}
