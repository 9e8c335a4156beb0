package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryMethodStandard DeliveryMethod = "standard"
	DeliveryMethodExpress  DeliveryMethod = "express"
	DeliveryMethodFast     DeliveryMethod = "fast"
)

func (d DeliveryMethod) IsValid() bool {
	switch d {
	case DeliveryMethodStandard, DeliveryMethodExpress, DeliveryMethodFast:
		return true
	default:
		return false
	}
}

type ShippingAddress struct {
	FullName     string `gorm:"not null;type:varchar(100)" json:"full_name"`
	Address      string `gorm:"not null;type:varchar(255)" json:"address"`
	City         string `gorm:"not null;type:varchar(100)" json:"city"`
	Ward         string `gorm:"type:varchar(100)" json:"ward,omitempty"`
	District     string `gorm:"type:varchar(100)" json:"district,omitempty"`
	Province     string `gorm:"type:varchar(100)" json:"province,omitempty"`
	WardCode     string `gorm:"type:varchar(20)" json:"ward_code,omitempty"`
	DistrictCode string `gorm:"type:varchar(20)" json:"district_code,omitempty"`
	ProvinceCode string `gorm:"type:varchar(20)" json:"province_code,omitempty"`
	Phone        string `gorm:"not null;type:varchar(20)" json:"phone"`
}

// 金流回傳資料，僅保存不處理
type PaymentResult struct {
	ID           string `gorm:"type:varchar(100)" json:"id,omitempty"`
	Status       string `gorm:"type:varchar(50)" json:"status,omitempty"`
	UpdateTime   string `gorm:"type:varchar(50)" json:"update_time,omitempty"`
	EmailAddress string `gorm:"type:varchar(255)" json:"email_address,omitempty"`
}

type Order struct {
	OrderID             string          `gorm:"primaryKey;type:varchar(36)" json:"order_id"`
	UserID              string          `gorm:"not null;type:varchar(36);index" json:"user_id"`
	User                *User           `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	OrderItems          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"` // 一對多，級聯刪除
	ShippingAddress     ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod       string          `gorm:"not null;type:varchar(50)" json:"payment_method"`
	DeliveryMethod      DeliveryMethod  `gorm:"not null;type:varchar(20);default:standard" json:"delivery_method"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions,omitempty"`
	Email               string          `gorm:"type:varchar(255)" json:"email,omitempty"`
	ItemsPrice          decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"items_price"`
	ShippingPrice       decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"shipping_price"`
	TotalPrice          decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"total_price"`
	Status              OrderStatus     `gorm:"not null;default:0;index" json:"status"`
	PaymentResult       PaymentResult   `gorm:"embedded;embeddedPrefix:payment_" json:"payment_result"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	DeliveredAt         *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	BaseModel
}

type OrderItem struct {
	OrderID   string          `gorm:"primaryKey;type:varchar(36)" json:"order_id"`   // 外鍵，關聯到 Order
	ProductID string          `gorm:"primaryKey;type:varchar(36)" json:"product_id"` // 外鍵，關聯到 Product
	Product   *Product        `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
	Name      string          `gorm:"not null;type:varchar(255)" json:"name"`
	Amount    uint            `gorm:"not null" json:"amount"`
	Image     string          `gorm:"type:text" json:"image,omitempty"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"price"`
	BaseModel
}

func (o *Order) IsPaid() bool {
	return o.PaidAt != nil
}

func (o *Order) IsShipping() bool {
	return o.Status == OrderStatusShipping
}

func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// TransitionTo 依狀態表切換狀態，並補上對應時間戳
// 錯誤:
//   - ErrInvalidTransition: 狀態表不允許
func (o *Order) TransitionTo(target OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}

	o.Status = target
	switch target {
	case OrderStatusPaid:
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}
	return nil
}
