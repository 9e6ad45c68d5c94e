package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"expenseflow/internal/application/port"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/domain/money"
)

// Config holds the notification endpoint settings
type Config struct {
	Endpoint    string
	APIKey      string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// HTTPNotifier delivers submission notifications to an external mail endpoint
type HTTPNotifier struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewHTTPNotifier creates a new HTTP notification adapter
func NewHTTPNotifier(config Config, logger *zap.Logger) *HTTPNotifier {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &HTTPNotifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// submissionPayload is the wire format expected by the mail endpoint
type submissionPayload struct {
	ReportID    int64  `json:"report_id"`
	OwnerID     string `json:"owner_id"`
	TotalAmount string `json:"total_amount"`
	SubmittedAt string `json:"submitted_at"`
}

// NotifySubmission posts a submission notice, retrying transient failures
func (n *HTTPNotifier) NotifySubmission(ctx context.Context, report *entity.ExpenseReport) error {
	payload := submissionPayload{
		ReportID:    report.ID,
		OwnerID:     report.OwnerID,
		TotalAmount: money.FormatCents(report.TotalAmountCents),
		SubmittedAt: report.UpdatedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.config.MaxAttempts; attempt++ {
		lastErr = n.send(ctx, body)
		if lastErr == nil {
			if attempt > 1 {
				n.logger.Info("Notification succeeded after retry",
					zap.Int64("report_id", report.ID),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		n.logger.Warn("Notification attempt failed",
			zap.Int64("report_id", report.ID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", n.config.MaxAttempts),
			zap.Error(lastErr))

		if attempt < n.config.MaxAttempts {
			select {
			case <-time.After(n.config.RetryDelay):
			case <-ctx.Done():
				return fmt.Errorf("notification cancelled: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("notification failed after %d attempts: %w", n.config.MaxAttempts, lastErr)
}

func (n *HTTPNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Verify interface compliance
var _ port.Notifier = (*HTTPNotifier)(nil)
