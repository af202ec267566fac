package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of a repair case.
type OrderStatus string

const (
	StatusReceived      OrderStatus = "received"
	StatusInMaintenance OrderStatus = "in_maintenance"
	StatusCompleted     OrderStatus = "completed"
	StatusFailed        OrderStatus = "failed"
	StatusSending       OrderStatus = "sending"
	StatusReturned      OrderStatus = "returned"
)

// Terminal reports whether no further workflow action can move the order.
func (s OrderStatus) Terminal() bool {
	return s == StatusSending || s == StatusReturned
}

// MaintenanceAction names one technician-driven workflow step.
type MaintenanceAction string

const (
	ActionReceived            MaintenanceAction = "received"
	ActionStartMaintenance    MaintenanceAction = "start_maintenance"
	ActionCompleteMaintenance MaintenanceAction = "complete_maintenance"
	ActionFailMaintenance     MaintenanceAction = "fail_maintenance"
	ActionReschedule          MaintenanceAction = "reschedule"
	ActionSendOrder           MaintenanceAction = "send_order"
	ActionConfirmSend         MaintenanceAction = "confirm_send"
	ActionReturnOrder         MaintenanceAction = "return_order"
	ActionMoveToReturns       MaintenanceAction = "move_to_returns"
	ActionRefundOrReplace     MaintenanceAction = "refund_or_replace"
	ActionSetReturnCondition  MaintenanceAction = "set_return_condition"
)

// ReturnCondition classifies a returned unit once it is back on the shelf.
type ReturnCondition string

const (
	ReturnConditionValid   ReturnCondition = "valid"
	ReturnConditionDamaged ReturnCondition = "damaged"
)

// Order is one physical repair case, keyed by the carrier tracking number.
// Orders are never physically deleted through the workflow; history rows
// record every action taken against them.
type Order struct {
	ID                  snowflake.ID     `gorm:"primaryKey"`
	TrackingNumber      string           `gorm:"type:text;not null;uniqueIndex:ux_orders_tracking_number"`
	Status              OrderStatus      `gorm:"type:text;not null;index:ix_orders_status"`
	CustomerName        string           `gorm:"type:text"`
	CustomerPhone       string           `gorm:"type:text;index:ix_orders_customer_phone"`
	CustomerSecondPhone string           `gorm:"type:text"`
	CustomerAddress     string           `gorm:"type:text"`
	CODAmount           float64          `gorm:"type:numeric(10,2);not null;default:0"`
	PackageDescription  string           `gorm:"type:text"`
	CarrierData         datatypes.JSON   `gorm:"type:text"`
	NewTrackingNumber   string           `gorm:"type:text"`
	NewCODAmount        *float64         `gorm:"type:numeric(10,2)"`
	ReturnCondition     *ReturnCondition `gorm:"type:text"`
	IsRefundOrReplace   bool             `gorm:"not null;default:false"`
	ServiceActionID     *snowflake.ID    `gorm:"index"`

	ReceivedAt           *time.Time
	MaintenanceStartedAt *time.Time
	CompletedAt          *time.Time
	FailedAt             *time.Time
	SentAt               *time.Time
	RescheduledAt        *time.Time
	ReturnedAt           *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// MaintenanceHistoryEntry is an immutable audit row, one per action.
type MaintenanceHistoryEntry struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	OrderID    snowflake.ID      `gorm:"not null;index:ix_maintenance_history_order_id"`
	Action     MaintenanceAction `gorm:"type:text;not null"`
	FromStatus OrderStatus       `gorm:"type:text;not null"`
	ToStatus   OrderStatus       `gorm:"type:text;not null"`
	Notes      string            `gorm:"type:text"`
	Payload    datatypes.JSONMap `gorm:"type:text"`
	Actor      string            `gorm:"type:text;not null"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (MaintenanceHistoryEntry) TableName() string { return "maintenance_history" }

// Summary aggregates order counts for the dashboard.
type Summary struct {
	Total    int64                 `json:"total"`
	ByStatus map[OrderStatus]int64 `json:"by_status"`
}
