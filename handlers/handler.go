package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/LivingHopeDev/Inventory-system/internal/auth"
	"github.com/LivingHopeDev/Inventory-system/internal/cart"
	"github.com/LivingHopeDev/Inventory-system/internal/orders"
	"github.com/LivingHopeDev/Inventory-system/internal/products"
	"github.com/LivingHopeDev/Inventory-system/internal/users"
	"github.com/LivingHopeDev/Inventory-system/middleware"
)

// The handler depends on small interfaces instead of the concrete store types
// so tests can swap in fakes.

type UserStore interface {
	InsertUser(ctx context.Context, newUser users.NewUser) (users.User, error)
	Authenticate(ctx context.Context, email, password string) (users.User, error)
	GetUserByID(ctx context.Context, userID string) (users.User, error)
}

type CatalogStore interface {
	InsertProduct(ctx context.Context, newProduct products.NewProduct) (products.Product, error)
	GetProductByID(ctx context.Context, productID string) (products.Product, error)
	UpdateProductInDB(ctx context.Context, productID string, updated products.NewProduct) (products.Product, error)
	DeleteProductFromDB(ctx context.Context, productID string) error
	ListProductsFromDB(ctx context.Context, skip, take int) ([]products.Product, error)
	SearchProducts(ctx context.Context, search string, skip, take int) ([]products.Product, error)
	InsertVariation(ctx context.Context, newVariation products.NewVariation) (products.Variation, error)
	UpdateVariation(ctx context.Context, variationID, vType, value string) (products.Variation, error)
	DeleteVariation(ctx context.Context, variationID string) error
	ListVariations(ctx context.Context, skip, take int) ([]products.Variation, error)
	SetStockThreshold(ctx context.Context, productID string, threshold int) (products.StockNotification, error)
	RearmStockNotification(ctx context.Context, productID string) (products.StockNotification, error)
}

type CartStore interface {
	AddToCart(ctx context.Context, userID string, item cart.NewCartItem) (cart.CartItem, error)
	AdjustQuantity(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error)
	GetCart(ctx context.Context, userID string) ([]cart.CartLine, error)
}

type OrderStore interface {
	CreateFromCart(ctx context.Context, userID string, newOrder orders.NewOrder) (orders.Order, error)
	GetAll(ctx context.Context, userID string) ([]orders.Order, error)
	GetByID(ctx context.Context, orderID, userID string) (orders.Order, error)
	Update(ctx context.Context, orderID, userID string, patch orders.AddressPatch) (orders.Order, error)
	Cancel(ctx context.Context, orderID, userID string) (orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus orders.Status) (orders.Order, error)
	Delete(ctx context.Context, orderID string) error
}

type Handler struct {
	u        UserStore
	p        CatalogStore
	c        CartStore
	o        OrderStore
	keys     *auth.Keys
	validate *validator.Validate
}

func NewHandler(u UserStore, p CatalogStore, c CartStore, o OrderStore, keys *auth.Keys) *Handler {
	return &Handler{
		u:        u,
		p:        p,
		c:        c,
		o:        o,
		keys:     keys,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, k *auth.Keys, u UserStore, p CatalogStore, c CartStore, o OrderStore) (*gin.Engine, error) {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(k)
	if err != nil {
		return nil, fmt.Errorf("failed to create middleware: %w", err)
	}

	h := NewHandler(u, p, c, o, k)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", healthCheck)
	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/auth/register", h.Signup)
		v1.POST("/auth/login", h.Login)

		v1.GET("/products", h.ListProducts)
		v1.GET("/products/search", h.SearchProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/variations", h.ListVariations)

		v1.Use(m.Authentication())

		v1.POST("/cart", m.Authorize(h.AddToCart, auth.RoleUser, auth.RoleAdmin))
		v1.GET("/cart", m.Authorize(h.GetCart, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/cart/:id", m.Authorize(h.AdjustCartItem, auth.RoleUser, auth.RoleAdmin))

		v1.POST("/orders", m.Authorize(h.CreateOrder, auth.RoleUser, auth.RoleAdmin))
		v1.GET("/orders", m.Authorize(h.GetAllOrders, auth.RoleUser, auth.RoleAdmin))
		v1.GET("/orders/:id", m.Authorize(h.GetOrderById, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/orders/:id", m.Authorize(h.UpdateOrder, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/orders/:id/cancel", m.Authorize(h.CancelOrder, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/orders/:id/status", m.Authorize(h.UpdateOrderStatus, auth.RoleAdmin))
		v1.DELETE("/orders/:id", m.Authorize(h.DeleteOrder, auth.RoleAdmin))

		v1.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		v1.PATCH("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		v1.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		v1.POST("/products/:id/stock-threshold", m.Authorize(h.SetStockThreshold, auth.RoleAdmin))
		v1.POST("/products/:id/stock-threshold/rearm", m.Authorize(h.RearmStockNotification, auth.RoleAdmin))

		v1.POST("/variations", m.Authorize(h.CreateVariation, auth.RoleAdmin))
		v1.PATCH("/variations/:id", m.Authorize(h.UpdateVariation, auth.RoleAdmin))
		v1.DELETE("/variations/:id", m.Authorize(h.DeleteVariation, auth.RoleAdmin))
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
