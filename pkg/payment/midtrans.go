package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

const midtransItemNameMax = 50

// MidtransConfig holds the server key and environment ("sandbox" or "production").
type MidtransConfig struct {
	ServerKey   string
	Environment string
}

// Midtrans is a Gateway backed by Midtrans Snap for checkout and the Core API
// for verifying a transaction once the buyer returns.
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
}

// NewMidtrans creates a Midtrans gateway.
func NewMidtrans(cfg MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.Environment == "production" {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)
	return m
}

func (m *Midtrans) Name() string { return "midtrans" }

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// snapItems converts items to whole-unit Midtrans lines and appends an
// adjustment line so the items always add up to the gross amount.
func snapItems(items []LineItem, gross int64) []midtrans.ItemDetails {
	details := make([]midtrans.ItemDetails, 0, len(items)+1)
	sum := decimal.Zero
	for _, it := range items {
		price := it.Price.Round(0).IntPart()
		details = append(details, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, midtransItemNameMax),
			Price: price,
			Qty:   int32(it.Quantity),
		})
		sum = sum.Add(decimal.NewFromInt(price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if diff := decimal.NewFromInt(gross).Sub(sum); !diff.IsZero() {
		details = append(details, midtrans.ItemDetails{
			ID:    "ADJUSTMENT",
			Name:  "Discount and rounding",
			Price: diff.IntPart(),
			Qty:   1,
		})
	}
	return details
}

// CreateIntent opens a Snap transaction and returns its token and redirect URL.
func (m *Midtrans) CreateIntent(_ context.Context, req IntentRequest) (json.RawMessage, error) {
	gross := req.Total.Round(0).IntPart()
	items := snapItems(req.Items, gross)

	resp, merr := m.snap.CreateTransaction(&snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  uuid.NewString(),
			GrossAmt: gross,
		},
		Items:           &items,
		EnabledPayments: snap.AllSnapPaymentType,
	})
	if merr != nil {
		return nil, fmt.Errorf("%w: midtrans create transaction: %s", ErrProvider, merr.Error())
	}
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("%w: midtrans returned no snap token", ErrProvider)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode midtrans response: %w", err)
	}
	return body, nil
}

// Capture checks the transaction status; Snap captures card payments itself,
// so a settled or captured status is the confirmation.
func (m *Midtrans) Capture(_ context.Context, providerOrderID string) (json.RawMessage, error) {
	if err := checkOrderID(providerOrderID); err != nil {
		return nil, err
	}
	status, merr := m.core.CheckTransaction(providerOrderID)
	if merr != nil {
		return nil, fmt.Errorf("%w: midtrans check transaction: %s", ErrProvider, merr.Error())
	}
	if status == nil {
		return nil, fmt.Errorf("%w: midtrans returned an empty transaction status", ErrProvider)
	}
	switch status.TransactionStatus {
	case "capture", "settlement":
	default:
		return nil, fmt.Errorf("%w: midtrans transaction %s is %q", ErrProvider, providerOrderID, status.TransactionStatus)
	}

	body, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("failed to encode midtrans response: %w", err)
	}
	return body, nil
}
