package model

import "github.com/shopspring/decimal"

// 商品目錄屬外部模組，此處只讀取並異動 count_in_stock 與 sold
type Product struct {
	ProductID    string          `gorm:"primaryKey;type:varchar(36)" json:"product_id"`
	Name         string          `gorm:"not null;type:varchar(255)" json:"name"`
	Image        string          `gorm:"type:text" json:"image,omitempty"`
	Price        decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"price"`
	CountInStock uint            `gorm:"not null;type:int;check:chk_products_count_in_stock,count_in_stock >= 0" json:"count_in_stock"`
	Sold         uint            `gorm:"not null;type:int;default:0;check:chk_products_sold,sold >= 0" json:"sold"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	BaseModel
}
