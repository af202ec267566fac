package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ItemType distinguishes finished appliances from spare parts.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypePart    ItemType = "part"
)

// ItemCondition classifies stock as sellable or damaged.
type ItemCondition string

const (
	ConditionValid   ItemCondition = "valid"
	ConditionDamaged ItemCondition = "damaged"
)

// MovementKind records why stock changed.
type MovementKind string

const (
	MovementMaintenance MovementKind = "maintenance"
	MovementSend        MovementKind = "send"
	MovementReceive     MovementKind = "receive"
)

// ItemRef identifies a product or part across the inventory.
type ItemRef struct {
	Type ItemType     `json:"item_type"`
	ID   snowflake.ID `json:"item_id"`
}

// Product is a finished appliance tracked in stock.
type Product struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	SKU                 string       `gorm:"type:text;not null;uniqueIndex:ux_products_sku"`
	NameAr              string       `gorm:"type:text;not null"`
	NameEn              string       `gorm:"type:text"`
	Category            string       `gorm:"type:text"`
	CurrentStock        int          `gorm:"not null;default:0"`
	CurrentStockDamaged int          `gorm:"not null;default:0"`
	AlertQuantity       int          `gorm:"not null;default:10"`
	CreatedAt           time.Time    `gorm:"not null"`
	UpdatedAt           time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// Part is a spare part, optionally tied to the product it services.
type Part struct {
	ID                  snowflake.ID  `gorm:"primaryKey"`
	SKU                 string        `gorm:"type:text;not null;uniqueIndex:ux_parts_sku"`
	NameAr              string        `gorm:"type:text;not null"`
	NameEn              string        `gorm:"type:text"`
	PartType            string        `gorm:"type:text"`
	ProductID           *snowflake.ID `gorm:"index"`
	CurrentStock        int           `gorm:"not null;default:0"`
	CurrentStockDamaged int           `gorm:"not null;default:0"`
	AlertQuantity       int           `gorm:"not null;default:10"`
	CreatedAt           time.Time     `gorm:"not null"`
	UpdatedAt           time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (Part) TableName() string { return "parts" }

// StockMovement is an immutable ledger row. Rows are only ever inserted;
// the current counters on products and parts are derived from them.
type StockMovement struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	ItemType        ItemType      `gorm:"type:text;not null;index:ix_stock_movements_item,priority:1"`
	ItemID          snowflake.ID  `gorm:"not null;index:ix_stock_movements_item,priority:2"`
	QuantityChange  int           `gorm:"not null"`
	Condition       ItemCondition `gorm:"type:text;not null"`
	MovementKind    MovementKind  `gorm:"type:text;not null"`
	OrderID         *snowflake.ID `gorm:"index"`
	ServiceActionID *snowflake.ID `gorm:"index"`
	Notes           string        `gorm:"type:text"`
	Actor           string        `gorm:"type:text;not null"`
	CreatedAt       time.Time     `gorm:"not null;index"`
}

// TableName sets the database table name.
func (StockMovement) TableName() string { return "stock_movements" }

// ItemSummary is the read model shared by products and parts.
type ItemSummary struct {
	Ref            ItemRef `json:"ref"`
	SKU            string  `json:"sku"`
	NameAr         string  `json:"name_ar"`
	NameEn         string  `json:"name_en"`
	TotalStock     int     `json:"total_stock"`
	DamagedStock   int     `json:"damaged_stock"`
	AvailableStock int     `json:"available_stock"`
	AlertQuantity  int     `json:"alert_quantity"`
	LowStock       bool    `json:"low_stock"`
}

// Overview aggregates stock health across the whole catalog.
type Overview struct {
	TotalProducts     int             `json:"total_products"`
	TotalParts        int             `json:"total_parts"`
	TotalValidStock   int             `json:"total_valid_stock"`
	TotalDamagedStock int             `json:"total_damaged_stock"`
	LowStockItems     []ItemSummary   `json:"low_stock_items"`
	RecentMovements   []StockMovement `json:"recent_movements"`
}
