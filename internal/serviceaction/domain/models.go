package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"gorm.io/datatypes"
)

// ActionKind is the type of customer-service case.
type ActionKind string

const (
	KindPartReplace        ActionKind = "part_replace"
	KindFullReplace        ActionKind = "full_replace"
	KindReturnFromCustomer ActionKind = "return_from_customer"
)

// IsReplace reports whether the case ships replacement stock out.
func (k ActionKind) IsReplace() bool {
	return k == KindPartReplace || k == KindFullReplace
}

// Status is the closed lifecycle enum for a service action. Completion and
// failure are formal states, not side-band markers.
type Status string

const (
	StatusCreated        Status = "created"
	StatusConfirmed      Status = "confirmed"
	StatusPendingReceive Status = "pending_receive"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether the case is closed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ServiceAction is one replacement-or-return case. The follow-up tracking
// number is assigned at confirmation and later drives integration back
// into the order workflow.
type ServiceAction struct {
	ID                     snowflake.ID  `gorm:"primaryKey"`
	ActionKind             ActionKind    `gorm:"type:text;not null"`
	Status                 Status        `gorm:"type:text;not null;index:ix_service_actions_status"`
	CustomerName           string        `gorm:"type:text"`
	CustomerPhone          string        `gorm:"type:text;index:ix_service_actions_customer_phone"`
	OriginalTrackingNumber string        `gorm:"type:text"`
	// NewTrackingNumber is empty until confirmation. Uniqueness is only
	// meaningful once populated; the migration enforces it with a partial
	// index and the service re-checks inside the confirm transaction.
	NewTrackingNumber      string        `gorm:"type:text"`
	Notes                  string        `gorm:"type:text"`
	RefundAmount           *float64      `gorm:"type:numeric(10,2)"`
	IntegratedOrderID      *snowflake.ID `gorm:"column:integrated_order_id"`
	IsIntegrated           bool          `gorm:"not null;default:false"`

	IntegratedAt      *time.Time
	RefundProcessedAt *time.Time
	ConfirmedAt       *time.Time
	SentAt            *time.Time
	ReceivedAt        *time.Time
	CompletedAt       *time.Time
	FailedAt          *time.Time
	CancelledAt       *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (ServiceAction) TableName() string { return "service_actions" }

// ServiceActionItem is one planned or actual line within a case.
type ServiceActionItem struct {
	ID                snowflake.ID             `gorm:"primaryKey"`
	ServiceActionID   snowflake.ID             `gorm:"not null;index:ix_service_action_items_action"`
	ItemType          invdomain.ItemType       `gorm:"type:text;not null"`
	ItemID            snowflake.ID             `gorm:"not null"`
	Quantity          int                      `gorm:"not null"`
	QuantityReceived  int                      `gorm:"not null;default:0"`
	ConditionReceived *invdomain.ItemCondition `gorm:"type:text"`
	SentAt            *time.Time
	ReceivedAt        *time.Time
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (ServiceActionItem) TableName() string { return "service_action_items" }

// FullyReceived holds when everything planned has come back and the
// receive timestamp is stamped.
func (i ServiceActionItem) FullyReceived() bool {
	return i.ReceivedAt != nil && i.QuantityReceived >= i.Quantity
}

// ServiceActionHistoryEntry is an immutable audit row scoped to one case.
type ServiceActionHistoryEntry struct {
	ID              snowflake.ID      `gorm:"primaryKey"`
	ServiceActionID snowflake.ID      `gorm:"not null;index:ix_service_action_history_action"`
	Action          string            `gorm:"type:text;not null"`
	FromStatus      Status            `gorm:"type:text;not null"`
	ToStatus        Status            `gorm:"type:text;not null"`
	Notes           string            `gorm:"type:text"`
	Payload         datatypes.JSONMap `gorm:"type:text"`
	Actor           string            `gorm:"type:text;not null"`
	CreatedAt       time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (ServiceActionHistoryEntry) TableName() string { return "service_action_history" }

// Detail bundles a case with its lines and audit trail.
type Detail struct {
	Action  ServiceAction               `json:"action"`
	Items   []ServiceActionItem         `json:"items"`
	History []ServiceActionHistoryEntry `json:"history"`
}

// Statistics summarizes workflow load for the dashboard.
type Statistics struct {
	Total          int64                `json:"total"`
	ByStatus       map[Status]int64     `json:"by_status"`
	ByKind         map[ActionKind]int64 `json:"by_kind"`
	Integrated     int64                `json:"integrated"`
	PendingRefunds int64                `json:"pending_refunds"`
}
