package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caregate/models"
	"caregate/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// ErrPaymentDeclined marks a payment the processor refused. The order
// service maps it to a FAILED order.
var ErrPaymentDeclined = errors.New("payment declined")

// Request captures what confirm needs to collect the money.
type Request struct {
	OrderID string
	Method  string // "card" or "cash"
	Amount  models.Money
	Billing models.Billing
}

// Handler collects payment for an order at confirm time.
type Handler interface {
	Process(ctx context.Context, req Request) (*models.Payment, error)
}

// StripeHandler charges cards through Stripe payment intents; cash stays
// pending and is settled at the appointment.
type StripeHandler struct{}

func NewStripeHandler() *StripeHandler {
	return &StripeHandler{}
}

func (h *StripeHandler) Process(ctx context.Context, req Request) (*models.Payment, error) {
	if err := validate(req); err != nil {
		return nil, fmt.Errorf("invalid payment request: %w", err)
	}

	p := &models.Payment{
		ID:     uuid.NewString(),
		Method: req.Method,
		Status: "pending",
		Amount: req.Amount,
	}

	switch req.Method {
	case "card":
		return h.processCard(ctx, req, p)
	case "cash":
		utils.GetLogger().Info("cash payment recorded", zap.String("order_id", req.OrderID))
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported payment method: %s", req.Method)
	}
}

func (h *StripeHandler) processCard(ctx context.Context, req Request, p *models.Payment) (*models.Payment, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(minorUnits(req.Amount)),
		Currency:           stripe.String(strings.ToLower(req.Amount.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			utils.GetLogger().Warn("card declined",
				zap.String("order_id", req.OrderID),
				zap.String("code", string(stripeErr.Code)))
			return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, stripeErr.Code)
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	p.IntentID = intent.ID
	p.Status = "paid"
	utils.GetLogger().Info("card payment intent created",
		zap.String("order_id", req.OrderID),
		zap.String("intent_id", intent.ID))
	return p, nil
}

func minorUnits(m models.Money) int64 {
	return int64(m.Value*100 + 0.5)
}

func validate(req Request) error {
	if req.Amount.Value <= 0 {
		return errors.New("invalid payment amount")
	}
	if req.Amount.Currency == "" {
		return errors.New("missing currency")
	}
	if req.OrderID == "" {
		return errors.New("missing order ID")
	}
	if req.Method != "card" && req.Method != "cash" {
		return errors.New("unsupported method")
	}
	return nil
}
