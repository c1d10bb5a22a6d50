package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/cache"
	"storefront/pkg/payment"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []rabbitmq.OrderCreated
	updated []rabbitmq.OrderStatusUpdated
}

func (p *recordingPublisher) PublishOrderCreated(evt rabbitmq.OrderCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, evt)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusUpdated(evt rabbitmq.OrderStatusUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, evt)
	return nil
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys...)
}

func (c *recordingCache) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range c.invalidated {
		if k == key {
			n++
		}
	}
	return n
}

type stubGateway struct {
	lastIntent payment.IntentRequest
	err        error
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (json.RawMessage, error) {
	g.lastIntent = req
	if g.err != nil {
		return nil, g.err
	}
	return json.RawMessage(`{"id":"PAY-1","status":"CREATED"}`), nil
}

func (g *stubGateway) Capture(_ context.Context, id string) (json.RawMessage, error) {
	if g.err != nil {
		return nil, g.err
	}
	return json.RawMessage(`{"id":"` + id + `","status":"COMPLETED"}`), nil
}

func seedProduct(t *testing.T, db *gorm.DB, p models.Product) *models.Product {
	t.Helper()
	if p.Price.IsZero() {
		p.Price = decimal.RequireFromString("10.00")
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func reloadProduct(t *testing.T, db *gorm.DB, id string) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

type orderFixture struct {
	db        *gorm.DB
	service   *services.OrderService
	carts     *services.CartService
	events    *recordingPublisher
	cache     *recordingCache
	gateway   *stubGateway
	userID    string
	addressID string
}

func newOrderFixture(t *testing.T, allowBackorder bool) *orderFixture {
	t.Helper()
	db := database.OpenTest(t)
	events := &recordingPublisher{}
	gateway := &stubGateway{}
	c := &recordingCache{}
	address := models.Address{UserID: "user-1", Name: "Home", Address: "1 Main St", City: "Springfield", Country: "US", PostalCode: "12345", Phone: "555"}
	require.NoError(t, db.Create(&address).Error)
	return &orderFixture{
		db:        db,
		service:   services.NewOrderService(repositories.NewGORMOrderRepository(db), gateway, events, c, allowBackorder, zap.NewNop()),
		carts:     services.NewCartService(repositories.NewGORMCartRepository(db), repositories.NewGORMProductRepository(db)),
		events:    events,
		cache:     c,
		gateway:   gateway,
		userID:    "user-1",
		addressID: address.ID,
	}
}

func (f *orderFixture) finalOrder(items ...services.OrderItemInput) services.FinalOrderInput {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return services.FinalOrderInput{Items: items, AddressID: f.addressID, Total: total, PaymentID: "PAY-1"}
}

func TestOrderService_CreateFinalOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, false)
	shirt := seedProduct(t, f.db, models.Product{Name: "Shirt", Category: "men", Stock: 5})
	coupon := models.Coupon{Code: "SAVE10", DiscountPercent: 10, StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour), UsageLimit: 5}
	require.NoError(t, f.db.Create(&coupon).Error)

	_, err := f.carts.AddToCart(ctx, f.userID, services.AddToCartInput{ProductID: shirt.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)

	in := f.finalOrder(services.OrderItemInput{ProductID: shirt.ID, ProductName: "Shirt", Quantity: 2, Size: "M", Price: shirt.Price})
	in.CouponID = coupon.ID
	order, err := f.service.CreateFinalOrder(ctx, f.userID, in)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)

	p := reloadProduct(t, f.db, shirt.ID)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, 2, p.SoldCount)

	var carts, items int64
	f.db.Model(&models.Cart{}).Where("user_id = ?", f.userID).Count(&carts)
	f.db.Model(&models.CartItem{}).Count(&items)
	assert.Zero(t, carts)
	assert.Zero(t, items)

	var c models.Coupon
	require.NoError(t, f.db.First(&c, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, c.UsageCount)

	assert.Equal(t, 1, f.cache.count(cache.KeyFeaturedProducts))

	require.Len(t, f.events.created, 1)
	assert.Equal(t, order.ID, f.events.created[0].OrderID)
	assert.Equal(t, 1, f.events.created[0].ItemCount)

	got, err := f.service.GetOrder(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Address)
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SAVE10", got.Coupon.Code)

	_, err = f.service.GetOrder(ctx, "someone-else", order.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOrderService_CreateFinalOrder_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, false)
	hat := seedProduct(t, f.db, models.Product{Name: "Hat", Stock: 10})
	shoe := seedProduct(t, f.db, models.Product{Name: "Shoe", Stock: 2})

	_, err := f.carts.AddToCart(ctx, f.userID, services.AddToCartInput{ProductID: shoe.ID, Quantity: 3})
	require.NoError(t, err)

	in := f.finalOrder(
		services.OrderItemInput{ProductID: hat.ID, Quantity: 1, Price: hat.Price},
		services.OrderItemInput{ProductID: shoe.ID, Quantity: 3, Price: shoe.Price},
	)
	_, err = f.service.CreateFinalOrder(ctx, f.userID, in)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Insufficient stock for Shoe", apperr.MessageOf(err, ""))

	assert.Equal(t, 10, reloadProduct(t, f.db, hat.ID).Stock)
	assert.Zero(t, reloadProduct(t, f.db, hat.ID).SoldCount)
	assert.Equal(t, 2, reloadProduct(t, f.db, shoe.ID).Stock)

	var orders, orderItems int64
	f.db.Model(&models.Order{}).Count(&orders)
	f.db.Model(&models.OrderItem{}).Count(&orderItems)
	assert.Zero(t, orders)
	assert.Zero(t, orderItems)

	lines, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Empty(t, f.events.created)
	assert.Zero(t, f.cache.count(cache.KeyFeaturedProducts))
}

func TestOrderService_CreateFinalOrder_Backorder(t *testing.T) {
	f := newOrderFixture(t, true)
	shoe := seedProduct(t, f.db, models.Product{Name: "Shoe", Stock: 2})

	_, err := f.service.CreateFinalOrder(context.Background(), f.userID,
		f.finalOrder(services.OrderItemInput{ProductID: shoe.ID, Quantity: 3, Price: shoe.Price}))
	require.NoError(t, err)

	p := reloadProduct(t, f.db, shoe.ID)
	assert.Equal(t, -1, p.Stock)
	assert.Equal(t, 3, p.SoldCount)
}

func TestOrderService_CreateFinalOrder_UnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, false)
	shoe := seedProduct(t, f.db, models.Product{Name: "Shoe", Stock: 2})

	_, err := f.service.CreateFinalOrder(ctx, f.userID,
		f.finalOrder(services.OrderItemInput{ProductID: "missing", Quantity: 1}))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	in := f.finalOrder(services.OrderItemInput{ProductID: shoe.ID, Quantity: 1, Price: shoe.Price})
	in.CouponID = "missing-coupon"
	_, err = f.service.CreateFinalOrder(ctx, f.userID, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 2, reloadProduct(t, f.db, shoe.ID).Stock)

	_, err = f.service.CreateFinalOrder(ctx, f.userID, services.FinalOrderInput{AddressID: f.addressID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, false)
	shoe := seedProduct(t, f.db, models.Product{Name: "Shoe", Stock: 5})
	order, err := f.service.CreateFinalOrder(ctx, f.userID,
		f.finalOrder(services.OrderItemInput{ProductID: shoe.ID, Quantity: 1, Price: shoe.Price}))
	require.NoError(t, err)

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, "LOST")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.service.UpdateOrderStatus(ctx, "missing", models.OrderStatusShipped)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	updated, err := f.service.UpdateOrderStatus(ctx, order.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	same, err := f.service.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, same.Status)

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.Len(t, f.events.updated, 2)
	assert.Equal(t, models.OrderStatusPending, f.events.updated[0].From)
	assert.Equal(t, models.OrderStatusDelivered, f.events.updated[1].To)

	all, err := f.service.GetAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	mine, err := f.service.GetOrdersByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderService_Payments(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, false)

	_, err := f.service.CreatePaymentIntent(ctx, payment.IntentRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	req := payment.IntentRequest{
		Items: []payment.LineItem{{ID: "p1", Name: "Shirt", Price: decimal.RequireFromString("12.50"), Quantity: 2}},
		Total: decimal.RequireFromString("25.00"),
	}
	resp, err := f.service.CreatePaymentIntent(ctx, req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"PAY-1","status":"CREATED"}`, string(resp))
	assert.Equal(t, "Shirt", f.gateway.lastIntent.Items[0].Name)

	resp, err = f.service.CapturePayment(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Contains(t, string(resp), "COMPLETED")

	_, err = f.service.CapturePayment(ctx, " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	f.gateway.err = errors.New("provider down")
	_, err = f.service.CapturePayment(ctx, "PAY-1")
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))

	f.gateway.err = fmt.Errorf("%w: %q", payment.ErrInvalidOrderID, "PAY-1/../x")
	_, err = f.service.CapturePayment(ctx, "PAY-1/../x")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCartService(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	svc := services.NewCartService(repositories.NewGORMCartRepository(db), repositories.NewGORMProductRepository(db))
	shirt := seedProduct(t, db, models.Product{Name: "Shirt", Stock: 5, Images: []string{"/uploads/a.png"}})

	lines, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = svc.AddToCart(ctx, "user-1", services.AddToCartInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "red"})
	require.NoError(t, err)
	merged, err := svc.AddToCart(ctx, "user-1", services.AddToCartInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "red"})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)
	_, err = svc.AddToCart(ctx, "user-1", services.AddToCartInput{ProductID: shirt.ID, Quantity: 1, Size: "L", Color: "red"})
	require.NoError(t, err)

	lines, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Shirt", lines[0].Name)
	assert.Equal(t, "/uploads/a.png", lines[0].Image)
	assert.True(t, shirt.Price.Equal(lines[0].Price))

	_, err = svc.AddToCart(ctx, "user-1", services.AddToCartInput{ProductID: "missing", Quantity: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.AddToCart(ctx, "user-1", services.AddToCartInput{ProductID: shirt.ID, Quantity: 0})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateQuantity(ctx, "user-2", merged.ID, 5)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	updated, err := svc.UpdateQuantity(ctx, "user-1", merged.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	assert.True(t, apperr.Is(svc.RemoveItem(ctx, "user-2", merged.ID), apperr.KindNotFound))
	require.NoError(t, svc.RemoveItem(ctx, "user-1", merged.ID))

	require.NoError(t, svc.ClearCart(ctx, "user-1"))
	lines, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	require.NoError(t, svc.ClearCart(ctx, "user-without-cart"))
}

func TestAddressService_SingleDefault(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	svc := services.NewAddressService(repositories.NewGORMAddressRepository(db))
	in := services.AddressInput{Name: "Home", Address: "1 Main St", City: "Springfield", Country: "US", PostalCode: "1", Phone: "555", IsDefault: true}

	first, err := svc.CreateAddress(ctx, "user-1", in)
	require.NoError(t, err)
	second, err := svc.CreateAddress(ctx, "user-1", in)
	require.NoError(t, err)
	other, err := svc.CreateAddress(ctx, "user-2", in)
	require.NoError(t, err)

	defaults := func(userID string) []string {
		addresses, err := svc.GetAddresses(ctx, userID)
		require.NoError(t, err)
		var ids []string
		for _, a := range addresses {
			if a.IsDefault {
				ids = append(ids, a.ID)
			}
		}
		return ids
	}
	assert.Equal(t, []string{second.ID}, defaults("user-1"))
	assert.Equal(t, []string{other.ID}, defaults("user-2"))

	updated, err := svc.UpdateAddress(ctx, "user-1", first.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, []string{first.ID}, defaults("user-1"))

	_, err = svc.UpdateAddress(ctx, "user-2", first.ID, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.DeleteAddress(ctx, "user-2", first.ID), apperr.KindNotFound))
	require.NoError(t, svc.DeleteAddress(ctx, "user-1", first.ID))
	assert.Empty(t, defaults("user-1"))
}

func TestReviewService_RatingFollowsReviews(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	c := &recordingCache{}
	svc := services.NewReviewService(repositories.NewGORMReviewRepository(db), repositories.NewGORMOrderRepository(db), c)
	product := seedProduct(t, db, models.Product{Name: "Shoe", Stock: 5})

	deliver := func(userID string) string {
		order := models.Order{
			UserID:    userID,
			AddressID: "addr",
			Status:    models.OrderStatusDelivered,
			Total:     product.Price,
			Items:     []models.OrderItem{{ProductID: product.ID, ProductName: product.Name, Quantity: 1, Price: product.Price}},
		}
		require.NoError(t, db.Create(&order).Error)
		return order.ID
	}
	order1 := deliver("user-1")
	order2 := deliver("user-2")

	pending := models.Order{UserID: "user-3", AddressID: "addr", Status: models.OrderStatusPending,
		Items: []models.OrderItem{{ProductID: product.ID, Quantity: 1}}}
	require.NoError(t, db.Create(&pending).Error)
	_, err := svc.CreateReview(ctx, "user-3", product.ID, pending.ID, services.ReviewInput{Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.CreateReview(ctx, "user-2", product.ID, order1, services.ReviewInput{Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.CreateReview(ctx, "user-1", product.ID, order1, services.ReviewInput{Rating: 6})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	eligible, err := svc.CanReview(ctx, "user-1", product.ID, order1)
	require.NoError(t, err)
	assert.True(t, eligible.CanReview)

	r1, err := svc.CreateReview(ctx, "user-1", product.ID, order1, services.ReviewInput{Rating: 4, Title: "Good"})
	require.NoError(t, err)
	r2, err := svc.CreateReview(ctx, "user-2", product.ID, order2, services.ReviewInput{Rating: 2, Title: "Meh"})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, "user-1", product.ID, order1, services.ReviewInput{Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	eligible, err = svc.CanReview(ctx, "user-1", product.ID, order1)
	require.NoError(t, err)
	assert.False(t, eligible.CanReview)

	rating := reloadProduct(t, db, product.ID).Rating
	require.NotNil(t, rating)
	assert.InDelta(t, 3.0, *rating, 1e-9)
	assert.Equal(t, 2, c.count(cache.KeyFeaturedProducts))

	_, err = svc.UpdateReview(ctx, "user-1", r2.ID, services.ReviewInput{Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	updated, err := svc.UpdateReview(ctx, "user-2", r2.ID, services.ReviewInput{Rating: 3, Comment: "Better"})
	require.NoError(t, err)
	assert.Equal(t, "Better", updated.Comment)
	assert.InDelta(t, 3.5, *reloadProduct(t, db, product.ID).Rating, 1e-9)

	require.NoError(t, svc.DeleteReview(ctx, "user-2", r2.ID))
	assert.InDelta(t, 4.0, *reloadProduct(t, db, product.ID).Rating, 1e-9)

	reviews, err := svc.GetProductReviews(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "user-1", reviews[0].UserID)

	require.NoError(t, svc.AdminDeleteReview(ctx, r1.ID))
	assert.Nil(t, reloadProduct(t, db, product.ID).Rating)
	assert.True(t, apperr.Is(svc.AdminDeleteReview(ctx, r1.ID), apperr.KindNotFound))
	assert.Equal(t, 5, c.count(cache.KeyFeaturedProducts))
}

// staleReviewRepository answers Exists from a snapshot taken before another
// request inserted the same review.
type staleReviewRepository struct {
	repositories.ReviewRepository
}

func (staleReviewRepository) Exists(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func TestReviewService_DuplicateInsertIsConflict(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	product := seedProduct(t, db, models.Product{Name: "Shoe", Stock: 5})
	order := models.Order{
		UserID:    "user-1",
		AddressID: "addr",
		Status:    models.OrderStatusDelivered,
		Items:     []models.OrderItem{{ProductID: product.ID, Quantity: 1}},
	}
	require.NoError(t, db.Create(&order).Error)

	svc := services.NewReviewService(staleReviewRepository{repositories.NewGORMReviewRepository(db)}, repositories.NewGORMOrderRepository(db), nil)
	_, err := svc.CreateReview(ctx, "user-1", product.ID, order.ID, services.ReviewInput{Rating: 4})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, "user-1", product.ID, order.ID, services.ReviewInput{Rating: 2})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.InDelta(t, 4.0, *reloadProduct(t, db, product.ID).Rating, 1e-9)
}

func TestProductService_ListClientProducts(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	svc := services.NewProductService(repositories.NewGORMProductRepository(db), nil, nil, zap.NewNop())

	for i, p := range []models.Product{
		{Name: "Alpha Tee", Category: "Men", Brand: "Nike", Sizes: []string{"M", "L"}, Colors: []string{"red"}, Price: decimal.RequireFromString("20")},
		{Name: "Beta Tee", Category: "men", Brand: "Adidas", Sizes: []string{"S"}, Colors: []string{"blue"}, Price: decimal.RequireFromString("35")},
		{Name: "Gamma Dress", Category: "Women", Brand: "Zara", Sizes: []string{"M"}, Colors: []string{"red", "black"}, Price: decimal.RequireFromString("80")},
		{Name: "Delta Cap", Category: "Kids", Brand: "Nike", Sizes: []string{"XL"}, Colors: []string{"green"}, Price: decimal.RequireFromString("5")},
	} {
		p.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		seedProduct(t, db, p)
	}

	page, err := svc.ListClientProducts(ctx, services.ProductQuery{Categories: []string{"MEN"}, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Alpha Tee", page.Products[0].Name)
	assert.Equal(t, int64(2), page.TotalProducts)

	page, err = svc.ListClientProducts(ctx, services.ProductQuery{Sizes: []string{"M"}, Colors: []string{"red"}, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Gamma Dress", page.Products[1].Name)

	minPrice, maxPrice := decimal.RequireFromString("10"), decimal.RequireFromString("50")
	page, err = svc.ListClientProducts(ctx, services.ProductQuery{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalProducts)

	page, err = svc.ListClientProducts(ctx, services.ProductQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, int64(4), page.TotalProducts)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Alpha Tee", page.Products[0].Name)

	page, err = svc.ListClientProducts(ctx, services.ProductQuery{Brands: []string{"nobody"}})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Zero(t, page.TotalPages)

	_, err = svc.ListClientProducts(ctx, services.ProductQuery{SortBy: "password"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.ListClientProducts(ctx, services.ProductQuery{SortOrder: "sideways"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCouponService(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	svc := services.NewCouponService(repositories.NewGORMCouponRepository(db))
	start := time.Now().UTC()
	in := services.CouponInput{Code: "save10", DiscountPercent: 10, StartDate: start, EndDate: start.Add(24 * time.Hour), UsageLimit: 3}

	coupon, err := svc.CreateCoupon(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)

	_, err = svc.CreateCoupon(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	bad := in
	bad.Code, bad.DiscountPercent = "OTHER", 101
	_, err = svc.CreateCoupon(ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	bad.DiscountPercent, bad.EndDate = 10, start
	_, err = svc.CreateCoupon(ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	coupons, err := svc.GetAllCoupons(ctx)
	require.NoError(t, err)
	assert.Len(t, coupons, 1)

	require.NoError(t, svc.DeleteCoupon(ctx, coupon.ID))
	assert.True(t, apperr.Is(svc.DeleteCoupon(ctx, coupon.ID), apperr.KindNotFound))
}

func TestSettingsService_FeaturedProducts(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	products := repositories.NewGORMProductRepository(db)
	svc := services.NewSettingsService(repositories.NewGORMBannerRepository(db), products, nil, nil, 2, zap.NewNop())

	a := seedProduct(t, db, models.Product{Name: "A", IsFeatured: true})
	b := seedProduct(t, db, models.Product{Name: "B"})
	c := seedProduct(t, db, models.Product{Name: "C"})

	err := svc.UpdateFeaturedProducts(ctx, []string{a.ID, b.ID, c.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	err = svc.UpdateFeaturedProducts(ctx, []string{b.ID, "missing"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.UpdateFeaturedProducts(ctx, []string{b.ID, c.ID}))
	featured, err := svc.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "B", featured[0].Name)
	assert.False(t, reloadProduct(t, db, a.ID).IsFeatured)

	_, err = svc.AddBanners(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
