// Package contracts defines the immutable data types shared by every core
// component: order intents, portfolios, market data, simulation and risk
// results, proposals, tokens, and audit events. Nothing in this package
// holds state or performs I/O.
package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentType enumerates the tradable asset classes.
type InstrumentType string

const (
	InstrumentSTK    InstrumentType = "STK"
	InstrumentETF    InstrumentType = "ETF"
	InstrumentFUT    InstrumentType = "FUT"
	InstrumentFX     InstrumentType = "FX"
	InstrumentCrypto InstrumentType = "CRYPTO"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType enumerates supported order types.
type OrderType string

const (
	OrderMarket        OrderType = "MKT"
	OrderLimit         OrderType = "LMT"
	OrderStop          OrderType = "STP"
	OrderStopLimit     OrderType = "STP_LMT"
)

// TimeInForce enumerates order duration semantics.
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFGTC TimeInForce = "GTC"
	TIFIOC TimeInForce = "IOC"
	TIFFOK TimeInForce = "FOK"
)

// Instrument identifies a tradable contract.
type Instrument struct {
	Symbol   string         `json:"symbol"`
	Type     InstrumentType `json:"type"`
	Exchange string         `json:"exchange"`
	Currency string         `json:"currency"`
}

// Normalize uppercases the symbol and trims surrounding whitespace.
func (i Instrument) Normalize() Instrument {
	i.Symbol = strings.ToUpper(strings.TrimSpace(i.Symbol))
	i.Exchange = strings.TrimSpace(i.Exchange)
	i.Currency = strings.ToUpper(strings.TrimSpace(i.Currency))
	return i
}

// Constraints are caller-supplied guardrails checked by the simulator.
type Constraints struct {
	MaxSlippageBps int             `json:"max_slippage_bps"`
	MaxNotional    decimal.Decimal `json:"max_notional"`
}

// OrderIntent is the immutable, caller-supplied description of a desired
// trade. It is never itself executable; it must pass validation,
// simulation, risk evaluation, and approval before a submit is possible.
type OrderIntent struct {
	AccountID    string          `json:"account_id"`
	Instrument   Instrument      `json:"instrument"`
	Side         Side            `json:"side"`
	OrderType    OrderType       `json:"order_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	LimitPrice   *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice    *decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce  TimeInForce     `json:"time_in_force"`
	Reason       string          `json:"reason"`
	StrategyTag  string          `json:"strategy_tag,omitempty"`
	Constraints  Constraints     `json:"constraints"`
}

// Canonicalize returns a deterministic JSON encoding of the intent used for
// hashing. Field order is fixed by the struct tag order above and
// json.Marshal's stable struct-field traversal, so equal intents always
// canonicalize to byte-identical output.
func (i OrderIntent) Canonicalize() ([]byte, error) {
	normalized := i
	normalized.Instrument = i.Instrument.Normalize()
	normalized.Side = Side(strings.ToUpper(string(i.Side)))
	normalized.OrderType = OrderType(strings.ToUpper(string(i.OrderType)))
	normalized.TimeInForce = TimeInForce(strings.ToUpper(string(i.TimeInForce)))
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("canonicalize intent: %w", err)
	}
	return raw, nil
}

// Hash returns the hex-encoded SHA-256 of the canonical form.
func (i OrderIntent) Hash() (string, error) {
	raw, err := i.Canonicalize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Validate applies the structural rules from the data model: required
// fields, enum membership, and conditional price requirements. It does not
// consult the broker, portfolio, or market data.
func (i OrderIntent) Validate() error {
	if strings.TrimSpace(i.AccountID) == "" {
		return fmt.Errorf("account_id is required")
	}
	symbol := strings.TrimSpace(i.Instrument.Symbol)
	if symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	switch i.Instrument.Type {
	case InstrumentSTK, InstrumentETF, InstrumentFUT, InstrumentFX, InstrumentCrypto:
	default:
		return fmt.Errorf("instrument.type %q is not a recognized instrument type", i.Instrument.Type)
	}
	switch i.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("side %q must be BUY or SELL", i.Side)
	}
	switch i.OrderType {
	case OrderMarket, OrderLimit, OrderStop, OrderStopLimit:
	default:
		return fmt.Errorf("order_type %q is not recognized", i.OrderType)
	}
	if !i.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be > 0")
	}
	needsLimit := i.OrderType == OrderLimit || i.OrderType == OrderStopLimit
	if needsLimit && i.LimitPrice == nil {
		return fmt.Errorf("limit_price is required for order_type %s", i.OrderType)
	}
	needsStop := i.OrderType == OrderStop || i.OrderType == OrderStopLimit
	if needsStop && i.StopPrice == nil {
		return fmt.Errorf("stop_price is required for order_type %s", i.OrderType)
	}
	switch i.TimeInForce {
	case TIFDay, TIFGTC, TIFIOC, TIFFOK:
	default:
		return fmt.Errorf("time_in_force %q is not recognized", i.TimeInForce)
	}
	words := strings.Fields(i.Reason)
	if len(i.Reason) < 10 || len(words) < 3 {
		return fmt.Errorf("reason must be at least 10 characters and 3 words")
	}
	if i.Constraints.MaxSlippageBps < 0 || i.Constraints.MaxSlippageBps > 1000 {
		return fmt.Errorf("constraints.max_slippage_bps must be within [0, 1000]")
	}
	if !i.Constraints.MaxNotional.IsPositive() {
		return fmt.Errorf("constraints.max_notional must be > 0")
	}
	return nil
}

// Position is a single held instrument within a Portfolio.
type Position struct {
	Instrument     Instrument      `json:"instrument"`
	Sector         string          `json:"sector,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	MarketValue    decimal.Decimal `json:"market_value"`
	UnrealizedPnL  decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL    decimal.Decimal `json:"realized_pnl"`
}

// Portfolio is a point-in-time account snapshot obtained from the broker
// adapter. The core never mutates it directly.
type Portfolio struct {
	AccountID  string                     `json:"account_id"`
	TotalValue decimal.Decimal            `json:"total_value"`
	Cash       map[string]decimal.Decimal `json:"cash"`
	Positions  []Position                 `json:"positions"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// PositionFor returns the held position for a symbol, if any.
func (p Portfolio) PositionFor(symbol string) (Position, bool) {
	symbol = strings.ToUpper(symbol)
	for _, pos := range p.Positions {
		if strings.ToUpper(pos.Instrument.Symbol) == symbol {
			return pos, true
		}
	}
	return Position{}, false
}

// OHLC is a single bar's open/high/low/close.
type OHLC struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// MarketSnapshot is the latest known quote for an instrument.
type MarketSnapshot struct {
	Instrument Instrument      `json:"instrument"`
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	Last       decimal.Decimal `json:"last"`
	Volume     int64           `json:"volume"`
	OHLC       OHLC            `json:"ohlc"`
	PrevClose  decimal.Decimal `json:"prev_close"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Mid returns (bid+ask)/2.
func (s MarketSnapshot) Mid() decimal.Decimal {
	return s.Bid.Add(s.Ask).Div(decimal.NewFromInt(2))
}

// StaleAfter reports whether the snapshot is older than max, measured
// against wall clock.
func (s MarketSnapshot) StaleAfter(now time.Time, max time.Duration) bool {
	return now.Sub(s.Timestamp) > max
}

// Bar is a single historical OHLCV observation.
type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	OHLC      OHLC            `json:"ohlc"`
	Volume    int64           `json:"volume"`
}

// Candidate is a fuzzy instrument-search hit.
type Candidate struct {
	Instrument Instrument `json:"instrument"`
	Name       string     `json:"name"`
	Score      float64    `json:"score"`
}

// OpenOrder is the broker's view of a live or recently terminal order.
type OpenOrder struct {
	BrokerOrderID string          `json:"broker_order_id"`
	AccountID     string          `json:"account_id"`
	Instrument    Instrument      `json:"instrument"`
	Side          Side            `json:"side"`
	OrderType     OrderType       `json:"order_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	FilledQty     decimal.Decimal `json:"filled_qty"`
	Status        OrderStatus     `json:"status"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderStatus is the broker-reported lifecycle status of a submitted order.
type OrderStatus string

const (
	BrokerOrderOpen      OrderStatus = "OPEN"
	BrokerOrderFilled    OrderStatus = "FILLED"
	BrokerOrderCancelled OrderStatus = "CANCELLED"
	BrokerOrderRejected  OrderStatus = "REJECTED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case BrokerOrderFilled, BrokerOrderCancelled, BrokerOrderRejected:
		return true
	default:
		return false
	}
}
