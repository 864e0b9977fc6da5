package contracts

import "github.com/shopspring/decimal"

// SimulationStatus is the outcome of a simulate() call.
type SimulationStatus string

const (
	SimSuccess            SimulationStatus = "SUCCESS"
	SimInsufficientCash    SimulationStatus = "INSUFFICIENT_CASH"
	SimInvalidQuantity     SimulationStatus = "INVALID_QUANTITY"
	SimPriceUnavailable    SimulationStatus = "PRICE_UNAVAILABLE"
	SimConstraintViolated  SimulationStatus = "CONSTRAINT_VIOLATED"
)

// SimulationResult is the immutable, deterministic projection of an
// intent's effect on cash and exposure.
type SimulationResult struct {
	Status           SimulationStatus `json:"status"`
	ExecutionPrice   decimal.Decimal  `json:"execution_price"`
	GrossNotional    decimal.Decimal  `json:"gross_notional"`
	EstimatedFee     decimal.Decimal  `json:"estimated_fee"`
	EstimatedSlippage decimal.Decimal `json:"estimated_slippage"`
	NetNotional      decimal.Decimal  `json:"net_notional"`
	CashBefore       decimal.Decimal  `json:"cash_before"`
	CashAfter        decimal.Decimal  `json:"cash_after"`
	ExposureBefore   decimal.Decimal  `json:"exposure_before"`
	ExposureAfter    decimal.Decimal  `json:"exposure_after"`
	Warnings         []string         `json:"warnings,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
}

// RiskDecisionVerdict is the tri-state outcome of risk evaluation.
type RiskDecisionVerdict string

const (
	RiskApprove      RiskDecisionVerdict = "APPROVE"
	RiskReject       RiskDecisionVerdict = "REJECT"
	RiskManualReview RiskDecisionVerdict = "MANUAL_REVIEW"
)

// RuleID identifies one of the twelve risk rules, or the synthetic "KS"
// (kill switch) rule.
type RuleID string

const (
	RuleR1  RuleID = "R1"
	RuleR2  RuleID = "R2"
	RuleR3  RuleID = "R3"
	RuleR4  RuleID = "R4"
	RuleR5  RuleID = "R5"
	RuleR6  RuleID = "R6"
	RuleR7  RuleID = "R7"
	RuleR8  RuleID = "R8"
	RuleR9  RuleID = "R9"
	RuleR10 RuleID = "R10"
	RuleR11 RuleID = "R11"
	RuleR12 RuleID = "R12"
	RuleKS  RuleID = "KS"
)

// RiskDecision is the immutable verdict produced by the risk engine.
type RiskDecision struct {
	Decision      RiskDecisionVerdict `json:"decision"`
	Reason        string              `json:"reason"`
	ViolatedRules []RuleID            `json:"violated_rules,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
	Metrics       map[string]float64  `json:"metrics,omitempty"`
}
