package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/repo"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	Repo    *repo.GormRepo
	Session *middleware.SessionMiddleware

	Category   *CategoryHTTP
	Catalog    *CatalogHTTP
	Lookup     *LookupHTTP
	Media      *MediaHTTP
	Cart       *CartHTTP
	Favorite   *FavoriteHTTP
	Coupon     *CouponHTTP
	Checkout   *CheckoutHTTP
	Order      *OrderHTTP
	Webhook    *WebhookHTTP
	User       *UserHTTP
	Newsletter *NewsletterHTTP
	Dashboard  *DashboardHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Repo.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	v1.GET("/categories", d.Category.ListCategories)
	v1.GET("/categories/tree", d.Category.CategoryTree)
	v1.GET("/categories/:slug", d.Category.GetCategory)

	v1.GET("/products", d.Catalog.ListProducts)
	v1.GET("/products/search", d.Catalog.SearchProducts)
	v1.GET("/products/:slug", d.Catalog.GetProduct)

	v1.GET("/seasons", d.Lookup.ListSeasons)
	v1.GET("/sizes", d.Lookup.ListSizes)

	v1.POST("/coupons/validate", d.Coupon.ValidateCoupon)
	v1.POST("/newsletter", d.Newsletter.Subscribe)

	v1.POST("/webhooks/stripe", d.Webhook.Stripe)
	v1.POST("/webhooks/identity", d.Webhook.Identity)

	authed := d.Session.RequireAuth

	v1.GET("/me", d.User.Me, authed)

	v1.GET("/cart", d.Cart.GetCart, authed)
	v1.POST("/cart/items", d.Cart.AddItem, authed)
	v1.PATCH("/cart/items/:variantId", d.Cart.UpdateItem, authed)
	v1.DELETE("/cart/items/:variantId", d.Cart.RemoveItem, authed)
	v1.DELETE("/cart", d.Cart.ClearCart, authed)
	v1.PUT("/cart/sync", d.Cart.SyncCart, authed)

	v1.GET("/favorites", d.Favorite.ListFavorites, authed)
	v1.POST("/favorites", d.Favorite.AddFavorite, authed)
	v1.DELETE("/favorites/:productId", d.Favorite.RemoveFavorite, authed)
	v1.PUT("/favorites/sync", d.Favorite.SyncFavorites, authed)

	v1.POST("/checkout", d.Checkout.Checkout, authed)
	v1.POST("/checkout/paypal/capture", d.Checkout.CapturePayPal, authed)

	v1.GET("/orders", d.Order.ListMyOrders, authed)
	v1.GET("/orders/:id", d.Order.GetMyOrder, authed)

	admin := v1.Group("/admin", d.Session.RequireAdmin)

	admin.POST("/categories", d.Category.CreateCategory)
	admin.PATCH("/categories/:id", d.Category.PatchCategory)
	admin.DELETE("/categories/:id", d.Category.DeleteCategory)

	admin.GET("/products", d.Catalog.AdminListProducts)
	admin.GET("/products/:id", d.Catalog.AdminGetProduct)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.POST("/products/:id/variants", d.Catalog.AddVariant)
	admin.PATCH("/variants/:variantId", d.Catalog.PatchVariant)
	admin.DELETE("/variants/:variantId", d.Catalog.DeleteVariant)
	admin.POST("/products/:id/images", d.Catalog.UploadProductImage)
	admin.DELETE("/images/:imageId", d.Catalog.DeleteProductImage)

	admin.POST("/uploads", d.Media.Upload)

	admin.GET("/orders", d.Order.ListOrders)
	admin.GET("/orders/:id", d.Order.GetOrder)
	admin.PATCH("/orders/:id/status", d.Order.UpdateOrderStatus)

	admin.GET("/coupons", d.Coupon.ListCoupons)
	admin.GET("/coupons/:id", d.Coupon.GetCoupon)
	admin.POST("/coupons", d.Coupon.CreateCoupon)
	admin.PATCH("/coupons/:id", d.Coupon.PatchCoupon)
	admin.DELETE("/coupons/:id", d.Coupon.DeleteCoupon)

	admin.POST("/seasons", d.Lookup.CreateSeason)
	admin.PATCH("/seasons/:id", d.Lookup.UpdateSeason)
	admin.DELETE("/seasons/:id", d.Lookup.DeleteSeason)
	admin.POST("/sizes", d.Lookup.CreateSize)
	admin.PATCH("/sizes/:id", d.Lookup.UpdateSize)
	admin.DELETE("/sizes/:id", d.Lookup.DeleteSize)

	admin.GET("/users", d.User.ListUsers)
	admin.PATCH("/users/:id/role", d.User.SetRole)

	admin.GET("/dashboard", d.Dashboard.Stats)
	admin.POST("/newsletter/broadcast", d.Newsletter.Broadcast)
}
