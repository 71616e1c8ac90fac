package handlers

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/LivingHopeDev/Inventory-system/internal/auth"
	"github.com/LivingHopeDev/Inventory-system/internal/cart"
	"github.com/LivingHopeDev/Inventory-system/internal/orders"
	"github.com/LivingHopeDev/Inventory-system/internal/products"
	"github.com/LivingHopeDev/Inventory-system/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake stores with per-method function fields. Tests set only the methods the
// handler under test reaches.

type fakeUserStore struct {
	insertUser   func(ctx context.Context, newUser users.NewUser) (users.User, error)
	authenticate func(ctx context.Context, email, password string) (users.User, error)
	getUserByID  func(ctx context.Context, userID string) (users.User, error)
}

func (f *fakeUserStore) InsertUser(ctx context.Context, newUser users.NewUser) (users.User, error) {
	return f.insertUser(ctx, newUser)
}

func (f *fakeUserStore) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	return f.authenticate(ctx, email, password)
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (users.User, error) {
	return f.getUserByID(ctx, userID)
}

// knownUserStore resolves every id, for handlers that only need the actor to exist.
func knownUserStore() *fakeUserStore {
	return &fakeUserStore{
		getUserByID: func(ctx context.Context, userID string) (users.User, error) {
			return users.User{ID: userID, Role: "ADMIN"}, nil
		},
	}
}

type fakeCatalogStore struct {
	insertProduct          func(ctx context.Context, newProduct products.NewProduct) (products.Product, error)
	getProductByID         func(ctx context.Context, productID string) (products.Product, error)
	updateProduct          func(ctx context.Context, productID string, updated products.NewProduct) (products.Product, error)
	deleteProduct          func(ctx context.Context, productID string) error
	listProducts           func(ctx context.Context, skip, take int) ([]products.Product, error)
	searchProducts         func(ctx context.Context, search string, skip, take int) ([]products.Product, error)
	insertVariation        func(ctx context.Context, newVariation products.NewVariation) (products.Variation, error)
	updateVariation        func(ctx context.Context, variationID, vType, value string) (products.Variation, error)
	deleteVariation        func(ctx context.Context, variationID string) error
	listVariations         func(ctx context.Context, skip, take int) ([]products.Variation, error)
	setStockThreshold      func(ctx context.Context, productID string, threshold int) (products.StockNotification, error)
	rearmStockNotification func(ctx context.Context, productID string) (products.StockNotification, error)
}

func (f *fakeCatalogStore) InsertProduct(ctx context.Context, newProduct products.NewProduct) (products.Product, error) {
	return f.insertProduct(ctx, newProduct)
}

func (f *fakeCatalogStore) GetProductByID(ctx context.Context, productID string) (products.Product, error) {
	return f.getProductByID(ctx, productID)
}

func (f *fakeCatalogStore) UpdateProductInDB(ctx context.Context, productID string, updated products.NewProduct) (products.Product, error) {
	return f.updateProduct(ctx, productID, updated)
}

func (f *fakeCatalogStore) DeleteProductFromDB(ctx context.Context, productID string) error {
	return f.deleteProduct(ctx, productID)
}

func (f *fakeCatalogStore) ListProductsFromDB(ctx context.Context, skip, take int) ([]products.Product, error) {
	return f.listProducts(ctx, skip, take)
}

func (f *fakeCatalogStore) SearchProducts(ctx context.Context, search string, skip, take int) ([]products.Product, error) {
	return f.searchProducts(ctx, search, skip, take)
}

func (f *fakeCatalogStore) InsertVariation(ctx context.Context, newVariation products.NewVariation) (products.Variation, error) {
	return f.insertVariation(ctx, newVariation)
}

func (f *fakeCatalogStore) UpdateVariation(ctx context.Context, variationID, vType, value string) (products.Variation, error) {
	return f.updateVariation(ctx, variationID, vType, value)
}

func (f *fakeCatalogStore) DeleteVariation(ctx context.Context, variationID string) error {
	return f.deleteVariation(ctx, variationID)
}

func (f *fakeCatalogStore) ListVariations(ctx context.Context, skip, take int) ([]products.Variation, error) {
	return f.listVariations(ctx, skip, take)
}

func (f *fakeCatalogStore) SetStockThreshold(ctx context.Context, productID string, threshold int) (products.StockNotification, error) {
	return f.setStockThreshold(ctx, productID, threshold)
}

func (f *fakeCatalogStore) RearmStockNotification(ctx context.Context, productID string) (products.StockNotification, error) {
	return f.rearmStockNotification(ctx, productID)
}

type fakeCartStore struct {
	addToCart      func(ctx context.Context, userID string, item cart.NewCartItem) (cart.CartItem, error)
	adjustQuantity func(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error)
	getCart        func(ctx context.Context, userID string) ([]cart.CartLine, error)
}

func (f *fakeCartStore) AddToCart(ctx context.Context, userID string, item cart.NewCartItem) (cart.CartItem, error) {
	return f.addToCart(ctx, userID, item)
}

func (f *fakeCartStore) AdjustQuantity(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error) {
	return f.adjustQuantity(ctx, cartItemID, userID, delta)
}

func (f *fakeCartStore) GetCart(ctx context.Context, userID string) ([]cart.CartLine, error) {
	return f.getCart(ctx, userID)
}

type fakeOrderStore struct {
	createFromCart func(ctx context.Context, userID string, newOrder orders.NewOrder) (orders.Order, error)
	getAll         func(ctx context.Context, userID string) ([]orders.Order, error)
	getByID        func(ctx context.Context, orderID, userID string) (orders.Order, error)
	update         func(ctx context.Context, orderID, userID string, patch orders.AddressPatch) (orders.Order, error)
	cancel         func(ctx context.Context, orderID, userID string) (orders.Order, error)
	updateStatus   func(ctx context.Context, orderID string, newStatus orders.Status) (orders.Order, error)
	delete         func(ctx context.Context, orderID string) error
}

func (f *fakeOrderStore) CreateFromCart(ctx context.Context, userID string, newOrder orders.NewOrder) (orders.Order, error) {
	return f.createFromCart(ctx, userID, newOrder)
}

func (f *fakeOrderStore) GetAll(ctx context.Context, userID string) ([]orders.Order, error) {
	return f.getAll(ctx, userID)
}

func (f *fakeOrderStore) GetByID(ctx context.Context, orderID, userID string) (orders.Order, error) {
	return f.getByID(ctx, orderID, userID)
}

func (f *fakeOrderStore) Update(ctx context.Context, orderID, userID string, patch orders.AddressPatch) (orders.Order, error) {
	return f.update(ctx, orderID, userID, patch)
}

func (f *fakeOrderStore) Cancel(ctx context.Context, orderID, userID string) (orders.Order, error) {
	return f.cancel(ctx, orderID, userID)
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, orderID string, newStatus orders.Status) (orders.Order, error) {
	return f.updateStatus(ctx, orderID, newStatus)
}

func (f *fakeOrderStore) Delete(ctx context.Context, orderID string) error {
	return f.delete(ctx, orderID)
}

func testKeys(t *testing.T) *auth.Keys {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	keys, err := auth.NewKeys(privatePEM, publicPEM)
	require.NoError(t, err)
	return keys
}

func userClaims(userID, role string) auth.Claims {
	return auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		Role:             role,
	}
}

// serve invokes a single handler with an optional JSON body, URL params and
// authenticated claims, bypassing the router and middleware chain.
func serve(t *testing.T, handler gin.HandlerFunc, method string, body any, params gin.Params, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, *claims))
	}

	c.Request = req
	c.Params = params
	handler(c)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestHealthCheck(t *testing.T) {
	w := serve(t, healthCheck, http.MethodGet, nil, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIWithoutKeys(t *testing.T) {
	_, err := API("/api/v1", nil, &fakeUserStore{}, &fakeCatalogStore{}, &fakeCartStore{}, &fakeOrderStore{})
	require.Error(t, err)
}

func TestAPIServesHealthCheck(t *testing.T) {
	api, err := API("/api/v1", testKeys(t), &fakeUserStore{}, &fakeCatalogStore{}, &fakeCartStore{}, &fakeOrderStore{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
