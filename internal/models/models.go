package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User mirrors an identity provider account. ID is the provider's user id.
type User struct {
	ID        string    `gorm:"primaryKey;size:191"                 json:"id"`
	Email     string    `gorm:"uniqueIndex;size:320;not null"       json:"email"`
	FirstName string    `gorm:"size:191"                            json:"first_name"`
	LastName  string    `gorm:"size:191"                            json:"last_name"`
	ImageURL  string    `gorm:"size:1024"                           json:"image_url"`
	Role      string    `gorm:"size:32;not null;default:customer"   json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	Base
	Name        string     `gorm:"size:191;not null"                 json:"name"`
	Slug        string     `gorm:"uniqueIndex;size:191;not null"     json:"slug"`
	Description string     `gorm:"type:text"                         json:"description"`
	ImageURL    string     `gorm:"size:1024"                         json:"image_url"`
	SortOrder   int        `gorm:"not null;default:0"                json:"sort_order"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"                   json:"parent_id"`
	Parent      *Category  `gorm:"foreignKey:ParentID"               json:"parent,omitempty"`
	Children    []Category `gorm:"foreignKey:ParentID"               json:"children,omitempty"`
}

type Season struct {
	Base
	Name string `gorm:"size:191;not null"             json:"name"`
	Slug string `gorm:"uniqueIndex;size:191;not null" json:"slug"`
}

type Size struct {
	Base
	Name      string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	SortOrder int    `gorm:"not null;default:0"          json:"sort_order"`
}

type Product struct {
	Base
	Name           string              `gorm:"size:255;not null"              json:"name"`
	Slug           string              `gorm:"uniqueIndex;size:255;not null"  json:"slug"`
	Description    string              `gorm:"type:text"                      json:"description"`
	Price          decimal.Decimal     `gorm:"type:decimal(12,2);not null"    json:"price"`
	CompareAtPrice decimal.NullDecimal `gorm:"type:decimal(12,2)"             json:"compare_at_price"`
	CategoryID     uuid.UUID           `gorm:"type:uuid;not null;index"       json:"category_id"`
	Category       *Category           `gorm:"foreignKey:CategoryID"          json:"category,omitempty"`
	SeasonID       *uuid.UUID          `gorm:"type:uuid;index"                json:"season_id"`
	Season         *Season             `gorm:"foreignKey:SeasonID"            json:"season,omitempty"`
	IsFeatured     bool                `gorm:"not null;default:false"         json:"is_featured"`
	IsArchived     bool                `gorm:"not null;default:false"         json:"is_archived"`
	Variants       []ProductVariant    `gorm:"foreignKey:ProductID"           json:"variants,omitempty"`
	Images         []ProductImage      `gorm:"foreignKey:ProductID"           json:"images,omitempty"`
	DeletedAt      gorm.DeletedAt      `gorm:"index"                          json:"-"`
}

type ProductVariant struct {
	Base
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"       json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID"           json:"product,omitempty"`
	SizeID    uuid.UUID `gorm:"type:uuid;not null;index"       json:"size_id"`
	Size      *Size     `gorm:"foreignKey:SizeID"              json:"size,omitempty"`
	Color     string    `gorm:"size:64"                        json:"color"`
	SKU       string    `gorm:"uniqueIndex;size:128;not null"  json:"sku"`
	Stock     int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
}

type ProductImage struct {
	Base
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	URL        string    `gorm:"size:1024;not null"       json:"url"`
	StorageKey string    `gorm:"size:512"                 json:"-"`
	Position   int       `gorm:"not null;default:0"       json:"position"`
}

type CartItem struct {
	Base
	UserID    string          `gorm:"size:191;not null;uniqueIndex:idx_cart_user_variant"    json:"user_id"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_variant"   json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"                                   json:"variant,omitempty"`
	Quantity  int             `gorm:"not null;default:1;check:quantity > 0"                  json:"quantity"`
}

type Favorite struct {
	Base
	UserID    string    `gorm:"size:191;not null;uniqueIndex:idx_fav_user_product"  json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fav_user_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID"                                 json:"product,omitempty"`
}

const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

type Coupon struct {
	Base
	Code           string          `gorm:"uniqueIndex;size:64;not null"          json:"code"`
	DiscountType   string          `gorm:"size:16;not null"                      json:"discount_type"`
	Value          decimal.Decimal `gorm:"type:decimal(12,2);not null"           json:"value"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	MaxUses        int             `gorm:"not null;default:0"                    json:"max_uses"`
	UsedCount      int             `gorm:"not null;default:0"                    json:"used_count"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	Active         bool            `gorm:"not null"                              json:"active"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

type Order struct {
	Base
	UserID             string          `gorm:"size:191;not null;index"       json:"user_id"`
	Email              string          `gorm:"size:320"                      json:"email"`
	Status             OrderStatus     `gorm:"size:16;not null;index"        json:"status"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"subtotal"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"discount"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"total"`
	Currency           string          `gorm:"size:8;not null"               json:"currency"`
	CouponID           *uuid.UUID      `gorm:"type:uuid"                     json:"coupon_id"`
	CouponCode         string          `gorm:"size:64"                       json:"coupon_code"`
	PaymentProvider    string          `gorm:"size:16"                       json:"payment_provider"`
	PaymentRef         string          `gorm:"size:255;index"                json:"payment_ref"`
	PaidAt             *time.Time      `json:"paid_at"`
	TrackingCode       string          `gorm:"size:128"                      json:"tracking_code"`
	ShippingName       string          `gorm:"size:255"                      json:"shipping_name"`
	ShippingLine1      string          `gorm:"size:255"                      json:"shipping_line1"`
	ShippingCity       string          `gorm:"size:128"                      json:"shipping_city"`
	ShippingPostalCode string          `gorm:"size:32"                       json:"shipping_postal_code"`
	ShippingCountry    string          `gorm:"size:64"                       json:"shipping_country"`
	Phone              string          `gorm:"size:64"                       json:"phone"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID"            json:"items,omitempty"`
}

// OrderItem keeps a snapshot of the purchased variant so history survives product deletion.
type OrderItem struct {
	Base
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"            json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"                     json:"product_id"`
	VariantID   *uuid.UUID      `gorm:"type:uuid;index"                     json:"variant_id"`
	ProductName string          `gorm:"size:255;not null"                   json:"product_name"`
	SizeName    string          `gorm:"size:64"                             json:"size_name"`
	Color       string          `gorm:"size:64"                             json:"color"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"         json:"unit_price"`
	Quantity    int             `gorm:"not null;check:quantity > 0"         json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"         json:"line_total"`
}

type NewsletterSubscriber struct {
	Base
	Email string `gorm:"uniqueIndex;size:320;not null" json:"email"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Category{}, &Season{}, &Size{}, &Product{}, &ProductVariant{}, &ProductImage{},
		&CartItem{}, &Favorite{}, &Coupon{}, &Order{}, &OrderItem{}, &NewsletterSubscriber{},
	}
}
