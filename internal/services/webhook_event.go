package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CheckoutCompletedEvent is the event type that always counts as a payment.
const CheckoutCompletedEvent = "checkout.session.completed"

// WebhookEvent is the part of a payment processor event the activation flow reads.
// It only exists after the raw body has passed signature verification.
type WebhookEvent struct {
	ID            string
	EventType     string
	PaymentStatus string
	Metadata      map[string]string
	RawBody       []byte
}

// ParseWebhookEvent decodes a processor payload. Two envelopes are accepted:
// the flat {"type":..,"data":{"attributes":{..}}} form and the nested
// {"data":{"attributes":{"type":..,"data":{"attributes":{..}}}}} form.
// Attribute objects are searched outermost first.
func ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	decoder := json.NewDecoder(bytes.NewReader(rawBody))
	decoder.UseNumber()

	var root map[string]interface{}
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	data := object(root, "data")
	attributes := object(data, "attributes")
	nested := object(object(attributes, "data"), "attributes")
	scopes := []map[string]interface{}{attributes, nested}

	event := &WebhookEvent{
		ID:        firstString(root, "id"),
		EventType: firstString(root, "type"),
		Metadata:  map[string]string{},
		RawBody:   rawBody,
	}
	if event.ID == "" {
		event.ID = firstString(data, "id")
	}
	if event.EventType == "" {
		event.EventType = firstString(attributes, "type")
	}

	for _, scope := range scopes {
		if md := object(scope, "metadata"); md != nil {
			for key, value := range md {
				if s, ok := scalarString(value); ok {
					event.Metadata[key] = s
				}
			}
			break
		}
	}

	for _, scope := range append(scopes, object(attributes, "metadata"), object(nested, "metadata")) {
		if status := firstString(scope, "payment_status", "paymentStatus"); status != "" {
			event.PaymentStatus = status
			break
		}
	}

	return event, nil
}

// IsPaid reports whether the event confirms a completed payment.
func (e *WebhookEvent) IsPaid() bool {
	return e.EventType == CheckoutCompletedEvent || e.PaymentStatus == "paid"
}

// UserID returns the user the payment was made for. userId wins over user_id.
func (e *WebhookEvent) UserID() string {
	return e.metadataValue("userId", "user_id")
}

// PlanID returns the purchased plan. planId wins over plan_id; a value that
// is not an integer counts as missing.
func (e *WebhookEvent) PlanID() (int, bool) {
	raw := e.metadataValue("planId", "plan_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PlanName returns the plan name carried in metadata, if any.
func (e *WebhookEvent) PlanName() string {
	return e.metadataValue("planName", "plan_name")
}

// DeliveryKey identifies a delivery for duplicate suppression. Retries are
// re-signed with a fresh timestamp, so only the event id or body is used.
func (e *WebhookEvent) DeliveryKey() string {
	if e.ID != "" {
		return "event:" + e.ID
	}
	sum := sha256.Sum256(e.RawBody)
	return "body:" + hex.EncodeToString(sum[:])
}

func (e *WebhookEvent) metadataValue(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(e.Metadata[key]); v != "" {
			return v
		}
	}
	return ""
}

func object(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]interface{})
	return obj
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func scalarString(v interface{}) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case json.Number:
		return value.String(), true
	default:
		return "", false
	}
}
