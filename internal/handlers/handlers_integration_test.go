package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/payment"
	"storefront/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

type stubGateway struct{}

func (stubGateway) Name() string { return "stub" }

func (stubGateway) CreateIntent(context.Context, payment.IntentRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"PAY-1","status":"CREATED"}`), nil
}

func (stubGateway) Capture(_ context.Context, id string) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"` + id + `","status":"COMPLETED"}`), nil
}

type testServer struct {
	app        *fiber.App
	db         *gorm.DB
	adminToken string
}

// setupApp builds the full server on an in-memory sqlite database with a
// super admin already signed in.
func setupApp(t *testing.T) *testServer {
	t.Helper()
	db := database.OpenTest(t)

	cfg := &config.Config{
		App:      config.AppConfig{Env: "test", ClientURL: "http://localhost:5173"},
		Auth:     config.AuthConfig{JWTSecret: testJWTSecret, AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour},
		Upload:   config.UploadConfig{Dir: t.TempDir(), BaseURL: "/uploads"},
		Settings: config.SettingsConfig{MaxFeaturedProducts: 8},
	}
	uploader, err := storage.NewLocalUploader(cfg.Upload.Dir, cfg.Upload.BaseURL)
	require.NoError(t, err)

	server := app.New(app.Deps{
		Config:   cfg,
		DB:       db,
		Log:      zap.NewNop(),
		Gateway:  stubGateway{},
		Uploader: uploader,
	})

	auth := services.NewAuthService(repositories.NewGORMUserRepository(db), testJWTSecret, time.Hour, 24*time.Hour, zap.NewNop())
	_, err = auth.CreateSuperAdmin(context.Background(), "Admin", "admin@example.com", "adminpass")
	require.NoError(t, err)

	ts := &testServer{app: server, db: db}
	ts.adminToken = ts.login(t, "admin@example.com", "adminpass")
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func (ts *testServer) request(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, body := ts.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

func (ts *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	resp, body := ts.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{"name": name, "email": email, "password": "secret123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return ts.login(t, email, "secret123")
}

func (ts *testServer) createProduct(t *testing.T, payload fiber.Map) string {
	t.Helper()
	resp, body := ts.request(t, http.MethodPost, "/api/products/create-new-product", ts.adminToken, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["product"].(map[string]any)["id"].(string)
}

func TestAuthRoutes(t *testing.T) {
	ts := setupApp(t)

	resp, body := ts.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{"name": "Jane", "email": "not-an-email", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["errors"], "email")

	resp, _ = ts.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{"name": "Jane", "email": "jane@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = ts.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{"name": "Jane", "email": "jane@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User with this email exists!", body["message"])

	resp, _ = ts.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "jane@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ts.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "jane@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jane@example.com", body["user"].(map[string]any)["email"])

	cookies := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "accessToken")
	require.Contains(t, cookies, "refreshToken")
	assert.True(t, cookies["accessToken"].HttpOnly)

	// The access cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: cookies["accessToken"].Value})
	resp, body = ts.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jane", body["user"].(map[string]any)["name"])

	resp, body = ts.request(t, http.MethodPut, "/api/auth/profile", cookies["accessToken"].Value, fiber.Map{"name": "Jane Doe", "email": "admin@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, body)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: cookies["refreshToken"].Value})
	resp, body = ts.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.NotEmpty(t, body["accessToken"])

	// The rotated-out refresh token no longer works.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: cookies["refreshToken"].Value})
	resp, _ = ts.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestProductRoutes(t *testing.T) {
	ts := setupApp(t)
	userToken := ts.register(t, "Jane", "jane@example.com")

	payload := fiber.Map{"name": "Tee", "category": "Men", "brand": "Nike", "sizes": "S, M", "colors": []string{"red"}, "price": 19.99, "stock": 4}
	resp, _ := ts.request(t, http.MethodPost, "/api/products/create-new-product", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = ts.request(t, http.MethodPost, "/api/products/create-new-product", userToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	id := ts.createProduct(t, payload)

	resp, body := ts.request(t, http.MethodGet, "/api/products/"+id, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	product := body["product"].(map[string]any)
	assert.Equal(t, []any{"S", "M"}, product["sizes"])
	assert.Equal(t, "19.99", product["price"])

	resp, _ = ts.request(t, http.MethodGet, "/api/products/missing", userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/products/fetch-client-products?categories=men&sizes=M&sortBy=price&sortOrder=asc", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 1)
	assert.Equal(t, float64(1), body["totalProducts"])
	assert.Equal(t, float64(1), body["currentPage"])

	resp, _ = ts.request(t, http.MethodGet, "/api/products/fetch-client-products?sortBy=password", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = ts.request(t, http.MethodGet, "/api/products/fetch-client-products?page=abc", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload["stock"] = 10
	resp, body = ts.request(t, http.MethodPut, "/api/products/"+id, ts.adminToken, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, float64(10), body["product"].(map[string]any)["stock"])

	resp, body = ts.request(t, http.MethodGet, "/api/products/fetch-admin-products", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 1)

	resp, _ = ts.request(t, http.MethodDelete, "/api/products/"+id, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.request(t, http.MethodDelete, "/api/products/"+id, ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductMultipartUpload(t *testing.T) {
	ts := setupApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Poster"))
	require.NoError(t, w.WriteField("price", "12.50"))
	require.NoError(t, w.WriteField("stock", "3"))
	require.NoError(t, w.WriteField("sizes", "A2,A3"))
	part, err := w.CreateFormFile("images", "poster.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/create-new-product", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ts.adminToken)
	resp, body := ts.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	product := body["product"].(map[string]any)
	images := product["images"].([]any)
	require.Len(t, images, 1)
	url := images[0].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.Equal(t, []any{"A2", "A3"}, product["sizes"])

	resp, _ = ts.do(t, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Non-image uploads are rejected.
	buf.Reset()
	w = multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Script"))
	part, err = w.CreateFormFile("images", "run.sh")
	require.NoError(t, err)
	_, _ = part.Write([]byte("#!/bin/sh"))
	require.NoError(t, w.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/products/create-new-product", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ts.adminToken)
	resp, _ = ts.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	ts := setupApp(t)
	userToken := ts.register(t, "Jane", "jane@example.com")
	productID := ts.createProduct(t, fiber.Map{"name": "Shoe", "price": "50.00", "stock": 2})

	resp, body := ts.request(t, http.MethodPost, "/api/address/add-address", userToken, fiber.Map{
		"name": "Home", "address": "1 Main St", "city": "Springfield", "country": "US", "postalCode": "12345", "phone": "555", "isDefault": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	addressID := body["address"].(map[string]any)["id"].(string)

	resp, body = ts.request(t, http.MethodPost, "/api/cart/add-to-cart", userToken, fiber.Map{"productId": productID, "quantity": 1, "size": "42"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, body = ts.request(t, http.MethodPost, "/api/cart/add-to-cart", userToken, fiber.Map{"productId": productID, "quantity": 1, "size": "42"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = ts.request(t, http.MethodGet, "/api/cart/fetch-cart", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := body["data"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(2), lines[0].(map[string]any)["quantity"])

	resp, body = ts.request(t, http.MethodPost, "/api/order/create-payment-intent", userToken, fiber.Map{
		"items": []fiber.Map{{"id": productID, "name": "Shoe", "price": 50, "quantity": 2}},
		"total": 100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "PAY-1", body["id"])

	resp, body = ts.request(t, http.MethodPost, "/api/order/capture-payment", userToken, fiber.Map{"orderId": "PAY-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "COMPLETED", body["status"])

	order := fiber.Map{
		"items":     []fiber.Map{{"productId": productID, "productName": "Shoe", "quantity": 2, "price": 50}},
		"addressId": addressID,
		"total":     100,
		"paymentId": "PAY-1",
	}
	resp, body = ts.request(t, http.MethodPost, "/api/order/create-final-order", userToken, order)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	orderID := body["order"].(map[string]any)["id"].(string)

	resp, body = ts.request(t, http.MethodGet, "/api/cart/fetch-cart", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])

	// Stock is exhausted now.
	resp, body = ts.request(t, http.MethodPost, "/api/order/create-final-order", userToken, order)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Insufficient stock for Shoe", body["message"])

	resp, body = ts.request(t, http.MethodGet, "/api/order/get-single-order/"+orderID, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.OrderStatusPending, body["order"].(map[string]any)["status"])

	resp, body = ts.request(t, http.MethodGet, "/api/order/get-order-by-user-id", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["orders"], 1)

	resp, _ = ts.request(t, http.MethodGet, "/api/order/get-all-orders-for-admin", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, body = ts.request(t, http.MethodGet, "/api/order/get-all-orders-for-admin", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jane", body["orders"].([]any)[0].(map[string]any)["user"].(map[string]any)["name"])

	// Reviews need a delivered order.
	review := fiber.Map{"productId": productID, "orderId": orderID, "rating": 4, "title": "Comfy"}
	resp, _ = ts.request(t, http.MethodPost, "/api/reviews/create", userToken, review)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodPut, "/api/order/"+orderID+"/status", ts.adminToken, fiber.Map{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, body = ts.request(t, http.MethodPut, "/api/order/"+orderID+"/status", ts.adminToken, fiber.Map{"status": "DELIVERED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	resp, _ = ts.request(t, http.MethodPut, "/api/order/"+orderID+"/status", ts.adminToken, fiber.Map{"status": "CANCELLED"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/reviews/can-review/"+productID+"/"+orderID, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["canReview"])

	resp, body = ts.request(t, http.MethodPost, "/api/reviews/create", userToken, review)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, _ = ts.request(t, http.MethodPost, "/api/reviews/create", userToken, review)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Product reviews are public.
	resp, body = ts.request(t, http.MethodGet, "/api/reviews/product/"+productID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reviews := body["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Jane", reviews[0].(map[string]any)["user"].(map[string]any)["name"])

	resp, body = ts.request(t, http.MethodGet, "/api/products/"+productID, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), body["product"].(map[string]any)["rating"])
}

func TestCouponAndSettingsRoutes(t *testing.T) {
	ts := setupApp(t)
	userToken := ts.register(t, "Jane", "jane@example.com")

	coupon := fiber.Map{"code": "save10", "discountPercent": 10, "startDate": "2025-01-01", "endDate": "2025-12-31", "usageLimit": 100}
	resp, _ := ts.request(t, http.MethodPost, "/api/coupon/create-coupon", userToken, coupon)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, body := ts.request(t, http.MethodPost, "/api/coupon/create-coupon", ts.adminToken, coupon)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "SAVE10", body["coupon"].(map[string]any)["code"])
	couponID := body["coupon"].(map[string]any)["id"].(string)

	resp, _ = ts.request(t, http.MethodPost, "/api/coupon/create-coupon", ts.adminToken, coupon)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/coupon/fetch-all-coupons", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["couponList"], 1)

	resp, body = ts.request(t, http.MethodDelete, "/api/coupon/"+couponID, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, couponID, body["id"])

	a := ts.createProduct(t, fiber.Map{"name": "A", "price": 1})
	b := ts.createProduct(t, fiber.Map{"name": "B", "price": 1})

	resp, _ = ts.request(t, http.MethodPost, "/api/settings/update-feature-products", ts.adminToken, fiber.Map{"productIds": []string{a, "missing"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = ts.request(t, http.MethodPost, "/api/settings/update-feature-products", ts.adminToken, fiber.Map{"productIds": []string{a, b}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/settings/fetch-feature-products", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["featuredProducts"], 2)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("images", "banner.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/settings/banners", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ts.adminToken)
	resp, body = ts.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	bannerID := body["banners"].([]any)[0].(map[string]any)["id"].(string)

	resp, _ = ts.request(t, http.MethodPost, "/api/settings/banners", ts.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.request(t, http.MethodGet, "/api/settings/get-banners", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["banners"], 1)

	resp, _ = ts.request(t, http.MethodDelete, "/api/settings/delete-banner/"+bannerID, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.request(t, http.MethodDelete, "/api/settings/delete-banner/"+bannerID, ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := setupApp(t)
	resp, body := ts.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
