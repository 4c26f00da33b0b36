package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

type CreateCategoryRequest struct {
	Name        string     `json:"name"        validate:"required,max=191"`
	Slug        string     `json:"slug"        validate:"omitempty,max=191"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"   validate:"omitempty,url"`
	SortOrder   int        `json:"sort_order"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// PatchCategoryRequest moves the category to the root when ClearParent is set.
type PatchCategoryRequest struct {
	Name        *string    `json:"name"        validate:"omitempty,min=1,max=191"`
	Slug        *string    `json:"slug"        validate:"omitempty,max=191"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"   validate:"omitempty,url"`
	SortOrder   *int       `json:"sort_order"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
}

type CategoryNode struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	ImageURL  string         `json:"image_url"`
	SortOrder int            `json:"sort_order"`
	Children  []CategoryNode `json:"children"`
}

type VariantInput struct {
	SizeID uuid.UUID `json:"size_id" validate:"required"`
	Color  string    `json:"color"   validate:"max=64"`
	SKU    string    `json:"sku"     validate:"max=128"`
	Stock  int       `json:"stock"   validate:"gte=0"`
}

type PatchVariantRequest struct {
	Color *string `json:"color" validate:"omitempty,max=64"`
	SKU   *string `json:"sku"   validate:"omitempty,min=1,max=128"`
	Stock *int    `json:"stock" validate:"omitempty,gte=0"`
}

type CreateProductRequest struct {
	Name           string           `json:"name"        validate:"required,max=255"`
	Slug           string           `json:"slug"        validate:"omitempty,max=255"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	CategoryID     uuid.UUID        `json:"category_id" validate:"required"`
	SeasonID       *uuid.UUID       `json:"season_id"`
	IsFeatured     bool             `json:"is_featured"`
	IsArchived     bool             `json:"is_archived"`
	Variants       []VariantInput   `json:"variants"    validate:"dive"`
	ImageURLs      []string         `json:"image_urls"  validate:"dive,url"`
}

type PatchProductRequest struct {
	Name           *string          `json:"name"        validate:"omitempty,min=1,max=255"`
	Slug           *string          `json:"slug"        validate:"omitempty,max=255"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	SeasonID       *uuid.UUID       `json:"season_id"`
	ClearSeason    bool             `json:"clear_season"`
	IsFeatured     *bool            `json:"is_featured"`
	IsArchived     *bool            `json:"is_archived"`
}

type ProductQuery struct {
	Category        string
	Season          string
	SizeName        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Featured        *bool
	Query           string
	Sort            string
	IncludeArchived bool
	Page            int
	PageSize        int
}

type ProductPage struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"items"`
}

type DeleteProductResponse struct {
	Deleted string `json:"deleted"`
}

type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type SeasonRequest struct {
	Name string `json:"name" validate:"required,max=191"`
}

type SizeRequest struct {
	Name      string `json:"name"       validate:"required,max=64"`
	SortOrder *int   `json:"sort_order"`
}

type CartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// SyncCartItem allows zero so a client may send lines it has emptied; those are skipped.
type SyncCartItem struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"gte=0"`
}

type SyncCartRequest struct {
	Items []SyncCartItem `json:"items" validate:"dive"`
}

type CartLine struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	ImageURL    string          `json:"image_url"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Stock       int             `json:"stock"`
}

type CartResponse struct {
	Items    []CartLine      `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type FavoriteRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type SyncFavoritesRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

type CreateCouponRequest struct {
	Code           string           `json:"code"             validate:"required,max=64"`
	DiscountType   string           `json:"discount_type"    validate:"required,oneof=PERCENT FIXED"`
	Value          decimal.Decimal  `json:"value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxUses        int              `json:"max_uses"         validate:"gte=0"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	Active         *bool            `json:"active"`
}

type PatchCouponRequest struct {
	Code           *string          `json:"code"             validate:"omitempty,min=1,max=64"`
	DiscountType   *string          `json:"discount_type"    validate:"omitempty,oneof=PERCENT FIXED"`
	Value          *decimal.Decimal `json:"value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxUses        *int             `json:"max_uses"         validate:"omitempty,gte=0"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	ClearExpiry    bool             `json:"clear_expiry"`
	Active         *bool            `json:"active"`
}

type ValidateCouponRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CouponQuote struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type ShippingInput struct {
	Name       string `json:"name"        validate:"max=255"`
	Line1      string `json:"line1"       validate:"max=255"`
	City       string `json:"city"        validate:"max=128"`
	PostalCode string `json:"postal_code" validate:"max=32"`
	Country    string `json:"country"     validate:"max=64"`
	Phone      string `json:"phone"       validate:"max=64"`
}

type CheckoutRequest struct {
	Provider   string        `json:"provider"    validate:"required,oneof=stripe paypal"`
	CouponCode string        `json:"coupon_code" validate:"max=64"`
	Email      string        `json:"email"       validate:"omitempty,email"`
	Shipping   ShippingInput `json:"shipping"`
}

type CheckoutResponse struct {
	OrderID  uuid.UUID `json:"order_id"`
	Provider string    `json:"provider"`
	URL      string    `json:"url"`
}

type CapturePayPalRequest struct {
	PayPalOrderID string `json:"paypal_order_id" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status       string  `json:"status"        validate:"required"`
	TrackingCode *string `json:"tracking_code" validate:"omitempty,max=128"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer admin"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type BroadcastRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	HTML    string `json:"html"    validate:"required"`
}

// BroadcastResponse carries Error when a batch failed after Sent recipients were mailed.
type BroadcastResponse struct {
	Sent  int    `json:"sent"`
	Error string `json:"error,omitempty"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type DashboardStats struct {
	TotalRevenue   decimal.Decimal         `json:"total_revenue"`
	OrdersByStatus map[string]int64        `json:"orders_by_status"`
	ProductCount   int64                   `json:"product_count"`
	CustomerCount  int64                   `json:"customer_count"`
	LowStock       []models.ProductVariant `json:"low_stock"`
	RecentOrders   []models.Order          `json:"recent_orders"`
	DailyRevenue   []DailyRevenue          `json:"daily_revenue"`
}
