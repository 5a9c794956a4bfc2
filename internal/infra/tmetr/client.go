package tmetr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the TMetr commander API that relays commands to the
// vending hardware.
type Client struct {
	host    string
	token   string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a new TMetr API client
func NewClient(host, token string, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *Client {
	return &Client{
		host:    host,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

type makeCommand struct {
	DeviceID  string `json:"deviceId"`
	OrderUUID string `json:"orderUuid"`
	DrinkUUID string `json:"drinkUuid"`
	Size      string `json:"size"`
	Price     int64  `json:"price"`
}

// SendMakeCommand instructs the machine to prepare the drink. The commander
// API accepts a batch; we always send a single command.
func (c *Client) SendMakeCommand(ctx context.Context, deviceID, orderID, drinkID string, size int, price int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := []makeCommand{{
		DeviceID:  deviceID,
		OrderUUID: orderID,
		DrinkUUID: drinkID,
		Size:      sizeName(size),
		Price:     price,
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal make command: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/commander/v1/command/make", c.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("Sending make command",
		"device_id", deviceID,
		"order_id", orderID,
		"drink_id", drinkID,
		"size", sizeName(size))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send make command: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		// Drain a bounded slice of the body for the log only; the raw
		// response never reaches user-facing fields.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Make command rejected",
			"order_id", orderID,
			"status_code", resp.StatusCode,
			"body", string(snippet))
		return fmt.Errorf("make command rejected: status %d", resp.StatusCode)
	}

	return nil
}

func sizeName(size int) string {
	switch size {
	case 1:
		return "small"
	case 2:
		return "medium"
	case 3:
		return "large"
	default:
		return "unknown"
	}
}
