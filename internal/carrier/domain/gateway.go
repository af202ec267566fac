package domain

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrShipmentNotFound = errors.New("shipment_not_found")
	ErrUnauthorized     = errors.New("carrier_unauthorized")
	ErrUnavailable      = errors.New("carrier_unavailable")
)

// ShipmentRecord is the normalized view of one carrier delivery.
type ShipmentRecord struct {
	TrackingNumber      string          `json:"tracking_number"`
	Status              string          `json:"status"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	CustomerSecondPhone string          `json:"customer_second_phone"`
	CustomerAddress     string          `json:"customer_address"`
	CODAmount           float64         `json:"cod_amount"`
	PackageDescription  string          `json:"package_description"`
	Raw                 json.RawMessage `json:"-"`
}

// SearchQuery filters carrier-side deliveries.
type SearchQuery struct {
	Phone    string
	Name     string
	Tracking string
	Page     int
	Limit    int
}

// Gateway talks to the shipping provider. Implementations map provider
// failures onto the sentinel errors above so callers never see raw HTTP
// details.
type Gateway interface {
	FetchShipment(ctx context.Context, tracking string) (*ShipmentRecord, error)
	SearchShipments(ctx context.Context, query SearchQuery) ([]ShipmentRecord, error)
}
