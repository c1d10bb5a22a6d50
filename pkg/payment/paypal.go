package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const paypalCurrency = "USD"

// PayPalConfig holds REST API credentials. BaseURL selects sandbox or live.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// PayPal is a Gateway backed by the PayPal Orders v2 API.
type PayPal struct {
	cfg PayPalConfig
}

// NewPayPal creates a PayPal gateway.
func NewPayPal(cfg PayPalConfig) *PayPal {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &PayPal{cfg: cfg}
}

func (p *PayPal) Name() string { return "paypal" }

type paypalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalItem struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SKU         string      `json:"sku"`
	UnitAmount  paypalMoney `json:"unit_amount"`
	Quantity    string      `json:"quantity"`
	Category    string      `json:"category"`
}

type paypalAmount struct {
	paypalMoney
	Breakdown struct {
		ItemTotal paypalMoney `json:"item_total"`
	} `json:"breakdown"`
}

type paypalPurchaseUnit struct {
	Amount paypalAmount `json:"amount"`
	Items  []paypalItem `json:"items"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

func usd(v decimal.Decimal) paypalMoney {
	return paypalMoney{CurrencyCode: paypalCurrency, Value: v.StringFixed(2)}
}

// accessToken exchanges the client credentials for a bearer token.
func (p *PayPal) accessToken() (string, error) {
	a := fiber.Post(p.cfg.BaseURL + "/v1/oauth2/token")
	a.BasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	a.ContentType(fiber.MIMEApplicationForm)
	a.BodyString("grant_type=client_credentials")
	a.Timeout(p.cfg.Timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: failed to request paypal token: %v", ErrProvider, errs[0])
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("%w: paypal token request returned %d", ErrProvider, code)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: failed to decode paypal token: %v", ErrProvider, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: paypal returned an empty access token", ErrProvider)
	}
	return token.AccessToken, nil
}

func (p *PayPal) post(url, token string, payload any, requestID string) (json.RawMessage, error) {
	a := fiber.Post(url)
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	if requestID != "" {
		a.Set("PayPal-Request-Id", requestID)
	}
	a.JSON(payload)
	a.Timeout(p.cfg.Timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: paypal request failed: %v", ErrProvider, errs[0])
	}
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("%w: paypal returned %d: %s", ErrProvider, code, body)
	}
	return json.RawMessage(body), nil
}

// CreateIntent creates a PayPal order with intent CAPTURE.
func (p *PayPal) CreateIntent(_ context.Context, req IntentRequest) (json.RawMessage, error) {
	token, err := p.accessToken()
	if err != nil {
		return nil, err
	}

	items := make([]paypalItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, paypalItem{
			Name:        it.Name,
			Description: it.Description,
			SKU:         it.ID,
			UnitAmount:  usd(it.Price),
			Quantity:    strconv.Itoa(it.Quantity),
			Category:    "PHYSICAL_GOODS",
		})
	}

	unit := paypalPurchaseUnit{Items: items}
	unit.Amount.paypalMoney = usd(req.Total)
	unit.Amount.Breakdown.ItemTotal = usd(itemTotal(req.Items))

	body := paypalOrderRequest{Intent: "CAPTURE", PurchaseUnits: []paypalPurchaseUnit{unit}}
	return p.post(p.cfg.BaseURL+"/v2/checkout/orders", token, body, uuid.NewString())
}

// Capture captures an approved PayPal order.
func (p *PayPal) Capture(_ context.Context, providerOrderID string) (json.RawMessage, error) {
	if err := checkOrderID(providerOrderID); err != nil {
		return nil, err
	}
	token, err := p.accessToken()
	if err != nil {
		return nil, err
	}
	return p.post(p.cfg.BaseURL+"/v2/checkout/orders/"+url.PathEscape(providerOrderID)+"/capture", token, struct{}{}, "")
}
