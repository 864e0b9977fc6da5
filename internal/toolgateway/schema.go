package toolgateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Argument structs for the tool surface. Each field carries a
// validator/v10 tag instead of a hand-rolled map-walker. Exported so
// handler registration (internal/core) can type-assert the decoded
// value without a parallel struct definition.
type PortfolioArgs struct {
	AccountID string `json:"account_id" validate:"required"`
}

type OpenOrdersArgs struct {
	AccountID string `json:"account_id" validate:"required"`
}

type MarketSnapshotArgs struct {
	Symbol string `json:"symbol" validate:"required,alphanum,max=10,uppercase"`
}

type MarketBarsArgs struct {
	Symbol    string `json:"symbol" validate:"required,alphanum,max=10,uppercase"`
	Timeframe string `json:"timeframe" validate:"required,oneof=1m 5m 1h 1d"`
	Limit     int    `json:"limit" validate:"required,min=1,max=1000"`
}

type InstrumentSearchArgs struct {
	Query string `json:"query" validate:"required,max=64"`
}

type InstrumentResolveArgs struct {
	Hint string `json:"hint" validate:"required,max=64"`
}

type SimulateOrderArgs struct {
	AccountID  string `json:"account_id" validate:"required"`
	Symbol     string `json:"symbol" validate:"required,alphanum,max=10,uppercase"`
	Side       string `json:"side" validate:"required,oneof=BUY SELL"`
	OrderType  string `json:"order_type" validate:"required,oneof=MKT LMT STP STP_LMT"`
	Quantity   string `json:"quantity" validate:"required,decimalgt0"`
	LimitPrice string `json:"limit_price" validate:"omitempty,decimalgt0"`
	StopPrice  string `json:"stop_price" validate:"omitempty,decimalgt0"`
}

type EvaluateRiskArgs struct {
	AccountID string `json:"account_id" validate:"required"`
	Symbol    string `json:"symbol" validate:"required,alphanum,max=10,uppercase"`
	Side      string `json:"side" validate:"required,oneof=BUY SELL"`
	Quantity  string `json:"quantity" validate:"required,decimalgt0"`
}

type RequestApprovalArgs struct {
	AccountID string `json:"account_id" validate:"required"`
	Symbol    string `json:"symbol" validate:"required,alphanum,max=10,uppercase"`
	Side      string `json:"side" validate:"required,oneof=BUY SELL"`
	OrderType string `json:"order_type" validate:"required,oneof=MKT LMT STP STP_LMT"`
	Quantity  string `json:"quantity" validate:"required,decimalgt0"`
	Reason    string `json:"reason" validate:"required,min=10"`
}

type RequestOrderCancelArgs struct {
	BrokerOrderID string `json:"broker_order_id" validate:"required"`
	Reason        string `json:"reason" validate:"required,min=10"`
}

type RequestOrderModifyArgs struct {
	BrokerOrderID string `json:"broker_order_id" validate:"required"`
	Reason        string `json:"reason" validate:"required,min=10"`
	NewQuantity   string `json:"new_quantity" validate:"omitempty,decimalgt0"`
	NewLimitPrice string `json:"new_limit_price" validate:"omitempty,decimalgt0"`
	NewStopPrice  string `json:"new_stop_price" validate:"omitempty,decimalgt0"`
}

var decimalRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("decimalgt0", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !decimalRe.MatchString(s) {
			return false
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f > 0
	})
	return v
}

// argConstructors maps a tool name to a zero-value pointer factory so
// DecodeAndValidate can unmarshal+validate without a type switch at every
// call site. cash, positions, and open_orders share portfolio's shape.
var argConstructors = map[string]func() any{
	"portfolio":            func() any { return &PortfolioArgs{} },
	"positions":            func() any { return &PortfolioArgs{} },
	"cash":                 func() any { return &PortfolioArgs{} },
	"open_orders":          func() any { return &OpenOrdersArgs{} },
	"market_snapshot":      func() any { return &MarketSnapshotArgs{} },
	"market_bars":          func() any { return &MarketBarsArgs{} },
	"instrument_search":    func() any { return &InstrumentSearchArgs{} },
	"instrument_resolve":   func() any { return &InstrumentResolveArgs{} },
	"simulate_order":       func() any { return &SimulateOrderArgs{} },
	"evaluate_risk":        func() any { return &EvaluateRiskArgs{} },
	"request_approval":     func() any { return &RequestApprovalArgs{} },
	"request_order_cancel": func() any { return &RequestOrderCancelArgs{} },
	"request_order_modify": func() any { return &RequestOrderModifyArgs{} },
}

// DecodeAndValidate decodes args into the tool's typed argument struct —
// rejecting unknown fields outright — then runs struct-tag validation.
// Returns the populated struct (as any) on success.
func DecodeAndValidate(toolName string, args map[string]any) (any, error) {
	ctor, ok := argConstructors[toolName]
	if !ok {
		return nil, errUnknownTool(toolName)
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errValidationFailed(toolName, err)
	}

	dest := ctor()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return nil, errValidationFailed(toolName, fmt.Errorf("strict decode: %w", err))
	}

	if err := validate.Struct(dest); err != nil {
		return nil, errValidationFailed(toolName, err)
	}
	return dest, nil
}
