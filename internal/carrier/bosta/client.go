package bosta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kariemSeiam/Hvar-Hub/internal/cache"
	"github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	"go.uber.org/zap"
)

// Client is the Bosta delivery API gateway. Fetched shipments are cached
// briefly because the scan screen polls the same tracking number while a
// package moves through intake.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      cache.Cache[string, *domain.ShipmentRecord]
	log        *zap.Logger
}

type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var shipmentCache cache.Cache[string, *domain.ShipmentRecord] = cache.NoopCache[string, *domain.ShipmentRecord]{}
	if cfg.CacheTTL > 0 {
		shipmentCache = cache.NewTTLCache[string, *domain.ShipmentRecord](cfg.CacheTTL)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		cache:      shipmentCache,
		log:        log.Named("carrier.bosta"),
	}
}

func (c *Client) FetchShipment(ctx context.Context, tracking string) (*domain.ShipmentRecord, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return nil, domain.ErrShipmentNotFound
	}
	if record, ok := c.cache.Get(tracking); ok {
		return record, nil
	}

	endpoint := fmt.Sprintf("%s/deliveries/business/%s", c.baseURL, url.PathEscape(tracking))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("carrier request failed", zap.String("tracking", tracking), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	record, err := parseShipment(body)
	if err != nil {
		return nil, err
	}
	record.TrackingNumber = tracking

	c.cache.Set(tracking, record)
	return record, nil
}

func (c *Client) SearchShipments(ctx context.Context, query domain.SearchQuery) ([]domain.ShipmentRecord, error) {
	values := url.Values{}
	if phone := strings.TrimSpace(query.Phone); phone != "" {
		values.Set("mobilePhone", NormalizeEgyptPhone(phone))
	}
	if name := strings.TrimSpace(query.Name); name != "" {
		values.Set("receiverName", name)
	}
	if tracking := strings.TrimSpace(query.Tracking); tracking != "" {
		values.Set("trackingNumber", tracking)
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/deliveries/search?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return parseShipmentList(body)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

func mapStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrShipmentNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status >= 500:
		return fmt.Errorf("%w: upstream status %d", domain.ErrUnavailable, status)
	case status >= 400:
		return fmt.Errorf("%w: upstream status %d", domain.ErrUnavailable, status)
	default:
		return nil
	}
}

// deliveryPayload mirrors the subset of the Bosta response we consume.
// Receiver fields come in Arabic and English variants; the Arabic ones
// win because the operations team works in Arabic.
type deliveryPayload struct {
	TrackingNumber string `json:"trackingNumber"`
	State          struct {
		Value string `json:"value"`
	} `json:"state"`
	Receiver struct {
		FullName    string `json:"fullName"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Phone       string `json:"phone"`
		SecondPhone string `json:"secondPhone"`
	} `json:"receiver"`
	DropOffAddress struct {
		FirstLine string `json:"firstLine"`
		City      struct {
			NameAr string `json:"nameAr"`
			Name   string `json:"name"`
		} `json:"city"`
		Zone struct {
			NameAr string `json:"nameAr"`
			Name   string `json:"name"`
		} `json:"zone"`
	} `json:"dropOffAddress"`
	COD   float64 `json:"cod"`
	Specs struct {
		PackageDetails struct {
			Description string `json:"description"`
		} `json:"packageDetails"`
	} `json:"specs"`
}

func parseShipment(body []byte) (*domain.ShipmentRecord, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response", domain.ErrUnavailable)
	}
	raw := envelope.Data
	if len(raw) == 0 {
		raw = body
	}

	var payload deliveryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed delivery payload", domain.ErrUnavailable)
	}
	record := payloadToRecord(payload)
	record.Raw = raw
	return &record, nil
}

func parseShipmentList(body []byte) ([]domain.ShipmentRecord, error) {
	var envelope struct {
		Data struct {
			Deliveries []json.RawMessage `json:"deliveries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response", domain.ErrUnavailable)
	}

	records := make([]domain.ShipmentRecord, 0, len(envelope.Data.Deliveries))
	for _, raw := range envelope.Data.Deliveries {
		var payload deliveryPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}
		record := payloadToRecord(payload)
		record.Raw = raw
		records = append(records, record)
	}
	return records, nil
}

func payloadToRecord(payload deliveryPayload) domain.ShipmentRecord {
	name := strings.TrimSpace(payload.Receiver.FullName)
	if name == "" {
		name = strings.TrimSpace(payload.Receiver.FirstName + " " + payload.Receiver.LastName)
	}

	city := firstNonEmpty(payload.DropOffAddress.City.NameAr, payload.DropOffAddress.City.Name)
	zone := firstNonEmpty(payload.DropOffAddress.Zone.NameAr, payload.DropOffAddress.Zone.Name)
	addressParts := make([]string, 0, 3)
	for _, part := range []string{payload.DropOffAddress.FirstLine, zone, city} {
		if strings.TrimSpace(part) != "" {
			addressParts = append(addressParts, strings.TrimSpace(part))
		}
	}

	return domain.ShipmentRecord{
		TrackingNumber:      payload.TrackingNumber,
		Status:              payload.State.Value,
		CustomerName:        name,
		CustomerPhone:       NormalizeEgyptPhone(payload.Receiver.Phone),
		CustomerSecondPhone: NormalizeEgyptPhone(payload.Receiver.SecondPhone),
		CustomerAddress:     strings.Join(addressParts, "، "),
		CODAmount:           payload.COD,
		PackageDescription:  payload.Specs.PackageDetails.Description,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
