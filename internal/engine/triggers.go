package engine

import (
	"context"

	"github.com/bloomhaus/mailflow/internal/model"
)

// Per-type convenience wrappers around ScheduleAutomationEmail, one per
// storefront trigger.

// ScheduleWelcome fires on customer signup.
func (e *Engine) ScheduleWelcome(ctx context.Context, customer model.CustomerSnapshot) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeWelcome, customer, nil, "normal")
}

// ScheduleAbandonedCartStage1 fires when the cart scanner detects an idle cart.
func (e *Engine) ScheduleAbandonedCartStage1(ctx context.Context, customer model.CustomerSnapshot, items []model.CartItem, cartTotal float64) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeAbandonedCart1, customer, cartEvent(items, cartTotal), "normal")
}

// ScheduleAbandonedCartStage2 is the follow-up nudge a day later.
func (e *Engine) ScheduleAbandonedCartStage2(ctx context.Context, customer model.CustomerSnapshot, items []model.CartItem, cartTotal float64) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeAbandonedCart2, customer, cartEvent(items, cartTotal), "low")
}

// ScheduleOrderConfirmation fires inline when an order is placed.
func (e *Engine) ScheduleOrderConfirmation(ctx context.Context, customer model.CustomerSnapshot, orderID string, orderTotal float64) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeOrderConfirmation, customer, orderEvent(orderID, orderTotal), "high")
}

// ScheduleCareGuide follows an order with plant-care instructions.
func (e *Engine) ScheduleCareGuide(ctx context.Context, customer model.CustomerSnapshot, orderID string) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeCareGuide, customer, map[string]any{"order_id": orderID}, "normal")
}

// ScheduleReviewRequest asks for a review a week after an order.
func (e *Engine) ScheduleReviewRequest(ctx context.Context, customer model.CustomerSnapshot, orderID string) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeReviewRequest, customer, map[string]any{"order_id": orderID}, "low")
}

// ScheduleReengagement fires when a customer has gone quiet.
func (e *Engine) ScheduleReengagement(ctx context.Context, customer model.CustomerSnapshot) (ScheduleResult, error) {
	return e.ScheduleAutomationEmail(ctx, model.TypeReengagement, customer, nil, "low")
}

func cartEvent(items []model.CartItem, total float64) map[string]any {
	return map[string]any{
		"cart_total": total,
		"item_count": len(items),
	}
}

func orderEvent(orderID string, total float64) map[string]any {
	return map[string]any{
		"order_id":    orderID,
		"order_total": total,
	}
}
