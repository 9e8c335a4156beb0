package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// 欄位命名沿用前端既有的 camelCase

type OrderItemDTO struct {
	Name    string          `json:"name"`
	Amount  uint            `json:"amount"`
	Image   string          `json:"image,omitempty"`
	Price   decimal.Decimal `json:"price"`
	Product string          `json:"product"`
}

type ShippingAddressDTO struct {
	FullName     string `json:"fullName"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Phone        string `json:"phone"`
	Ward         string `json:"ward,omitempty"`
	District     string `json:"district,omitempty"`
	Province     string `json:"province,omitempty"`
	WardCode     string `json:"wardCode,omitempty"`
	DistrictCode string `json:"districtCode,omitempty"`
	ProvinceCode string `json:"provinceCode,omitempty"`
}

// CreateOrderRequest 價格用指標判斷是否有帶
type CreateOrderRequest struct {
	OrderItems          []OrderItemDTO      `json:"orderItems"`
	ShippingAddress     *ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod       string              `json:"paymentMethod"`
	DeliveryMethod      string              `json:"deliveryMethod"`
	SpecialInstructions string              `json:"specialInstructions,omitempty"`
	Email               string              `json:"email,omitempty"`
	ItemsPrice          *decimal.Decimal    `json:"itemsPrice"`
	ShippingPrice       *decimal.Decimal    `json:"shippingPrice"`
	TotalPrice          *decimal.Decimal    `json:"totalPrice"`
}

type UpdateShippingRequest struct {
	IsShipping *bool `json:"isShipping"`
}

type PaymentResultDTO struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type DeleteManyOrderRequest struct {
	IDs []string `json:"ids"`
}

type DeleteManyOrderResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// OrderItemResponse productInfo 只在訂單明細展開
type OrderItemResponse struct {
	Name        string           `json:"name"`
	Amount      uint             `json:"amount"`
	Image       string           `json:"image,omitempty"`
	Price       float64          `json:"price"`
	Product     string           `json:"product"`
	ProductInfo *ProductResponse `json:"productInfo,omitempty"`
}

type ProductResponse struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Image        string  `json:"image,omitempty"`
	Price        float64 `json:"price"`
	CountInStock uint    `json:"countInStock"`
	Sold         uint    `json:"sold"`
	Description  string  `json:"description,omitempty"`
}

type OrderUserResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderResponse isPaid/isShipping/isDelivered/isCancelled 由狀態推導
type OrderResponse struct {
	ID                  string              `json:"_id"`
	User                string              `json:"user"`
	UserInfo            *OrderUserResponse  `json:"userInfo,omitempty"`
	OrderItems          []OrderItemResponse `json:"orderItems"`
	ShippingAddress     ShippingAddressDTO  `json:"shippingAddress"`
	PaymentMethod       string              `json:"paymentMethod"`
	DeliveryMethod      string              `json:"deliveryMethod"`
	SpecialInstructions string              `json:"specialInstructions,omitempty"`
	ItemsPrice          float64             `json:"itemsPrice"`
	ShippingPrice       float64             `json:"shippingPrice"`
	TotalPrice          float64             `json:"totalPrice"`
	Status              string              `json:"status"`
	IsPaid              bool                `json:"isPaid"`
	PaidAt              *time.Time          `json:"paidAt,omitempty"`
	IsShipping          bool                `json:"isShipping"`
	IsDelivered         bool                `json:"isDelivered"`
	DeliveredAt         *time.Time          `json:"deliveredAt,omitempty"`
	IsCancelled         bool                `json:"isCancelled"`
	CancelledAt         *time.Time          `json:"cancelledAt,omitempty"`
	PaymentResult       *PaymentResultDTO   `json:"paymentResult,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}
