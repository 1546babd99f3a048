package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"membership-api/internal/models"
	"membership-api/pkg/logging"
)

// ActivationNotifier is told about every membership the webhook activates.
type ActivationNotifier interface {
	NotifyActivated(membership *models.Membership)
}

// MembershipNotifier posts activation events to the front-desk backend.
type MembershipNotifier struct {
	callbackURL string
	secret      string
	httpClient  *http.Client
	retryDelays []time.Duration
}

// NewMembershipNotifier returns nil when no callback URL is configured.
func NewMembershipNotifier(callbackURL, secret string) *MembershipNotifier {
	if callbackURL == "" {
		return nil
	}
	return &MembershipNotifier{
		callbackURL: callbackURL,
		secret:      secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// MembershipEventPayload is the body sent to the callback URL.
type MembershipEventPayload struct {
	Event     string `json:"event"`
	UserID    string `json:"userId"`
	PlanID    int    `json:"planId"`
	PlanName  string `json:"planName"`
	StartDate string `json:"startDate"` // RFC 3339
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

// NotifyActivated sends the event in the background.
func (n *MembershipNotifier) NotifyActivated(membership *models.Membership) {
	if n == nil || membership == nil {
		return
	}

	payload := MembershipEventPayload{
		Event:     "membership.activated",
		UserID:    membership.UserID,
		PlanID:    membership.PlanID,
		PlanName:  membership.PlanName,
		StartDate: membership.StartDate.UTC().Format(time.RFC3339),
		Status:    membership.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	go n.sendWithRetry(context.Background(), payload)
}

// sendWithRetry sends once, then retries after each delay in retryDelays.
func (n *MembershipNotifier) sendWithRetry(ctx context.Context, payload MembershipEventPayload) error {
	maxAttempts := len(n.retryDelays) + 1

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = n.send(ctx, payload); err == nil {
			logging.Infof("Membership notification sent - user_id: %s, plan_id: %d, attempt: %d",
				payload.UserID, payload.PlanID, attempt+1)
			return nil
		}

		logging.Warnf("Membership notification failed - user_id: %s, attempt: %d, error: %v",
			payload.UserID, attempt+1, err)

		if attempt < maxAttempts-1 {
			select {
			case <-time.After(n.retryDelays[attempt]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	logging.Errorf("Membership notification failed after %d attempts - user_id: %s", maxAttempts, payload.UserID)
	return err
}

func (n *MembershipNotifier) send(ctx context.Context, payload MembershipEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "membership-api/1.0")
	if n.secret != "" {
		req.Header.Set("X-Membership-Signature", signPayload(body, n.secret))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// signPayload is HMAC-SHA256 over the JSON body, hex encoded.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
