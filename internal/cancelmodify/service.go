package cancelmodify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradegate/internal/audit"
	"tradegate/internal/broker"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
	"tradegate/internal/killswitch"
	"tradegate/internal/observability"
)

// Service implements request/grant/deny for CancelIntent and ModifyIntent
// against a live broker order.
type Service struct {
	store      *Store
	broker     broker.Broker
	audit      *audit.Logger
	killSwitch *killswitch.Switch
}

// New builds a Service.
func New(store *Store, b broker.Broker, auditLogger *audit.Logger, killSwitch *killswitch.Switch) *Service {
	return &Service{store: store, broker: b, audit: auditLogger, killSwitch: killSwitch}
}

// RequestCancel creates a CancelIntent in REQUESTED state.
func (s *Service) RequestCancel(ctx context.Context, brokerOrderID, reason string) (contracts.CancelIntent, error) {
	if reason == "" {
		return contracts.CancelIntent{}, coreerr.Validationf("cancelmodify: cancel request requires a reason")
	}
	now := time.Now().UTC()
	ci := contracts.CancelIntent{
		MutationID:    uuid.NewString(),
		BrokerOrderID: brokerOrderID,
		Reason:        reason,
		State:         contracts.MutationRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ctx, err := s.logCancel(ctx, contracts.EventCancelRequested, ci, nil)
	if err != nil {
		return contracts.CancelIntent{}, err
	}
	ci.CorrelationID = observability.CorrelationIDFromContext(ctx)
	if err := s.store.InsertCancel(ctx, ci); err != nil {
		return contracts.CancelIntent{}, err
	}
	return ci, nil
}

// GrantCancel moves a CancelIntent to GRANTED and, unless the Kill Switch
// is enabled, executes it against the broker immediately.
func (s *Service) GrantCancel(ctx context.Context, mutationID, actor string) (contracts.CancelIntent, error) {
	ci, err := s.store.GetCancel(ctx, mutationID)
	if err != nil {
		return contracts.CancelIntent{}, err
	}
	if !contracts.CanTransitionMutation(ci.State, contracts.MutationGranted) {
		return contracts.CancelIntent{}, coreerr.Newf(coreerr.State, "cancelmodify: cancel %s is %s, cannot grant", mutationID, ci.State)
	}
	granted := ci.WithState(contracts.MutationGranted, time.Now().UTC())
	if err := s.store.ReplaceCancel(ctx, granted); err != nil {
		return contracts.CancelIntent{}, err
	}
	if _, err := s.logCancel(ctx, contracts.EventCancelGranted, granted, map[string]any{"actor": actor}); err != nil {
		return contracts.CancelIntent{}, err
	}

	if s.killSwitch != nil && s.killSwitch.IsEnabled() {
		return granted, nil
	}
	return s.executeCancel(ctx, granted)
}

// DenyCancel moves a CancelIntent to DENIED.
func (s *Service) DenyCancel(ctx context.Context, mutationID, reason, actor string) (contracts.CancelIntent, error) {
	if reason == "" {
		return contracts.CancelIntent{}, coreerr.Validationf("cancelmodify: deny requires a reason")
	}
	ci, err := s.store.GetCancel(ctx, mutationID)
	if err != nil {
		return contracts.CancelIntent{}, err
	}
	if !contracts.CanTransitionMutation(ci.State, contracts.MutationDenied) {
		return contracts.CancelIntent{}, coreerr.Newf(coreerr.State, "cancelmodify: cancel %s is %s, cannot deny", mutationID, ci.State)
	}
	denied := ci.WithState(contracts.MutationDenied, time.Now().UTC())
	if err := s.store.ReplaceCancel(ctx, denied); err != nil {
		return contracts.CancelIntent{}, err
	}
	_, err = s.logCancel(ctx, contracts.EventCancelDenied, denied, map[string]any{"reason": reason, "actor": actor})
	return denied, err
}

func (s *Service) executeCancel(ctx context.Context, ci contracts.CancelIntent) (contracts.CancelIntent, error) {
	if _, err := s.broker.CancelOrder(ctx, ci.BrokerOrderID); err != nil {
		failed := ci.WithState(contracts.MutationExecutionFailed, time.Now().UTC())
		_ = s.store.ReplaceCancel(ctx, failed)
		_, _ = s.logCancel(ctx, contracts.EventCancelExecuted, failed, map[string]any{"error": err.Error()})
		return failed, nil
	}
	executed := ci.WithState(contracts.MutationExecuted, time.Now().UTC())
	if err := s.store.ReplaceCancel(ctx, executed); err != nil {
		return contracts.CancelIntent{}, err
	}
	_, err := s.logCancel(ctx, contracts.EventCancelExecuted, executed, nil)
	return executed, err
}

// RequestModify creates a ModifyIntent in REQUESTED state. At least one of
// newQuantity/newLimitPrice/newStopPrice must be non-nil.
func (s *Service) RequestModify(ctx context.Context, brokerOrderID string, newQuantity, newLimitPrice, newStopPrice *decimal.Decimal, reason string) (contracts.ModifyIntent, error) {
	if reason == "" {
		return contracts.ModifyIntent{}, coreerr.Validationf("cancelmodify: modify request requires a reason")
	}
	if newQuantity == nil && newLimitPrice == nil && newStopPrice == nil {
		return contracts.ModifyIntent{}, coreerr.Validationf("cancelmodify: modify request must change at least one of quantity, limit_price, stop_price")
	}
	now := time.Now().UTC()
	mi := contracts.ModifyIntent{
		MutationID:    uuid.NewString(),
		BrokerOrderID: brokerOrderID,
		NewQuantity:   newQuantity,
		NewLimitPrice: newLimitPrice,
		NewStopPrice:  newStopPrice,
		Reason:        reason,
		State:         contracts.MutationRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ctx, err := s.logModify(ctx, contracts.EventModifyRequested, mi, nil)
	if err != nil {
		return contracts.ModifyIntent{}, err
	}
	mi.CorrelationID = observability.CorrelationIDFromContext(ctx)
	if err := s.store.InsertModify(ctx, mi); err != nil {
		return contracts.ModifyIntent{}, err
	}
	return mi, nil
}

// GrantModify moves a ModifyIntent to GRANTED and, unless the Kill Switch
// is enabled, executes it as cancel-then-resubmit: the broker interface
// exposes no native replace, so the original order is cancelled and a new
// one is submitted with the modified parameters.
func (s *Service) GrantModify(ctx context.Context, mutationID, actor string, intent contracts.OrderIntent) (contracts.ModifyIntent, error) {
	mi, err := s.store.GetModify(ctx, mutationID)
	if err != nil {
		return contracts.ModifyIntent{}, err
	}
	if !contracts.CanTransitionMutation(mi.State, contracts.MutationGranted) {
		return contracts.ModifyIntent{}, coreerr.Newf(coreerr.State, "cancelmodify: modify %s is %s, cannot grant", mutationID, mi.State)
	}
	granted := mi.WithState(contracts.MutationGranted, time.Now().UTC())
	if err := s.store.ReplaceModify(ctx, granted); err != nil {
		return contracts.ModifyIntent{}, err
	}
	if _, err := s.logModify(ctx, contracts.EventModifyGranted, granted, map[string]any{"actor": actor}); err != nil {
		return contracts.ModifyIntent{}, err
	}

	if s.killSwitch != nil && s.killSwitch.IsEnabled() {
		return granted, nil
	}
	return s.executeModify(ctx, granted, intent)
}

// DenyModify moves a ModifyIntent to DENIED.
func (s *Service) DenyModify(ctx context.Context, mutationID, reason, actor string) (contracts.ModifyIntent, error) {
	mi, err := s.store.GetModify(ctx, mutationID)
	if err != nil {
		return contracts.ModifyIntent{}, err
	}
	if !contracts.CanTransitionMutation(mi.State, contracts.MutationDenied) {
		return contracts.ModifyIntent{}, coreerr.Newf(coreerr.State, "cancelmodify: modify %s is %s, cannot deny", mutationID, mi.State)
	}
	denied := mi.WithState(contracts.MutationDenied, time.Now().UTC())
	if err := s.store.ReplaceModify(ctx, denied); err != nil {
		return contracts.ModifyIntent{}, err
	}
	_, err = s.logModify(ctx, contracts.EventModifyDenied, denied, map[string]any{"reason": reason, "actor": actor})
	return denied, err
}

func (s *Service) executeModify(ctx context.Context, mi contracts.ModifyIntent, intent contracts.OrderIntent) (contracts.ModifyIntent, error) {
	if _, err := s.broker.CancelOrder(ctx, mi.BrokerOrderID); err != nil {
		failed := mi.WithState(contracts.MutationExecutionFailed, time.Now().UTC())
		_ = s.store.ReplaceModify(ctx, failed)
		_, _ = s.logModify(ctx, contracts.EventModifyExecuted, failed, map[string]any{"error": err.Error()})
		return failed, nil
	}

	modified := intent
	if mi.NewQuantity != nil {
		modified.Quantity = *mi.NewQuantity
	}
	if mi.NewLimitPrice != nil {
		modified.LimitPrice = mi.NewLimitPrice
	}
	if mi.NewStopPrice != nil {
		modified.StopPrice = mi.NewStopPrice
	}

	if _, err := s.broker.SubmitOrder(ctx, modified, mi.MutationID); err != nil {
		failed := mi.WithState(contracts.MutationExecutionFailed, time.Now().UTC())
		_ = s.store.ReplaceModify(ctx, failed)
		_, _ = s.logModify(ctx, contracts.EventModifyExecuted, failed, map[string]any{"error": err.Error()})
		return failed, nil
	}

	executed := mi.WithState(contracts.MutationExecuted, time.Now().UTC())
	if err := s.store.ReplaceModify(ctx, executed); err != nil {
		return contracts.ModifyIntent{}, err
	}
	_, err := s.logModify(ctx, contracts.EventModifyExecuted, executed, nil)
	return executed, err
}

func (s *Service) logCancel(ctx context.Context, eventType contracts.EventType, ci contracts.CancelIntent, extra map[string]any) (context.Context, error) {
	if s.audit == nil {
		return ctx, nil
	}
	data := map[string]any{"mutation_id": ci.MutationID, "broker_order_id": ci.BrokerOrderID, "state": ci.State}
	for k, v := range extra {
		data[k] = v
	}
	return s.audit.Log(ctx, eventType, data)
}

func (s *Service) logModify(ctx context.Context, eventType contracts.EventType, mi contracts.ModifyIntent, extra map[string]any) (context.Context, error) {
	if s.audit == nil {
		return ctx, nil
	}
	data := map[string]any{"mutation_id": mi.MutationID, "broker_order_id": mi.BrokerOrderID, "state": mi.State}
	for k, v := range extra {
		data[k] = v
	}
	return s.audit.Log(ctx, eventType, data)
}
