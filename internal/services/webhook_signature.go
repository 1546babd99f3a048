package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"membership-api/internal/config"
	"membership-api/pkg/logging"
)

// VerificationErrorKind classifies why a webhook signature was rejected.
type VerificationErrorKind string

const (
	MissingSignature  VerificationErrorKind = "missing_signature"
	MalformedHeader   VerificationErrorKind = "malformed_header"
	StaleSignature    VerificationErrorKind = "stale_signature"
	SignatureMismatch VerificationErrorKind = "signature_mismatch"
)

// VerificationError is returned for every rejected webhook signature.
type VerificationError struct {
	Kind   VerificationErrorKind
	Detail string
}

func (e *VerificationError) Error() string {
	if e.Detail == "" {
		return "webhook signature: " + string(e.Kind)
	}
	return fmt.Sprintf("webhook signature: %s: %s", e.Kind, e.Detail)
}

// Is matches on Kind so callers can use errors.Is with the sentinels below.
func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingSignature  = &VerificationError{Kind: MissingSignature}
	ErrMalformedHeader   = &VerificationError{Kind: MalformedHeader}
	ErrStaleSignature    = &VerificationError{Kind: StaleSignature}
	ErrSignatureMismatch = &VerificationError{Kind: SignatureMismatch}
)

func verificationError(kind VerificationErrorKind, format string, args ...interface{}) error {
	return &VerificationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// SignatureHeader is the parsed form of "t=<unix>,te=<hex>,li=<hex>".
type SignatureHeader struct {
	Timestamp     int64
	RawTimestamp  string
	TestSignature string
	LiveSignature string
}

// ParseSignatureHeader parses a signature header strictly: every entry must be
// a non-empty key=value pair, keys may not repeat, and t must be a base-10
// integer. Unknown keys are ignored.
func ParseSignatureHeader(header string) (*SignatureHeader, error) {
	seen := make(map[string]struct{}, 3)
	parsed := &SignatureHeader{}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" {
			return nil, verificationError(MalformedHeader, "invalid entry %q", part)
		}
		if _, dup := seen[key]; dup {
			return nil, verificationError(MalformedHeader, "duplicate key %q", key)
		}
		seen[key] = struct{}{}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, verificationError(MalformedHeader, "timestamp %q is not an integer", value)
			}
			parsed.Timestamp = ts
			parsed.RawTimestamp = value
		case "te":
			parsed.TestSignature = value
		case "li":
			parsed.LiveSignature = value
		}
	}

	if _, ok := seen["t"]; !ok {
		return nil, verificationError(MalformedHeader, "timestamp is missing")
	}
	return parsed, nil
}

// signatureFor picks the signature to check, preferring the mode's own field.
func (h *SignatureHeader) signatureFor(useLiveMode bool) string {
	preferred, fallback := h.TestSignature, h.LiveSignature
	if useLiveMode {
		preferred, fallback = h.LiveSignature, h.TestSignature
	}
	if preferred != "" {
		return preferred
	}
	return fallback
}

// ComputeSignature returns hex(HMAC-SHA256(secret, "{t}.{body}")).
func ComputeSignature(secret, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature header against the raw request body.
// An empty secret disables verification and always succeeds.
func VerifySignature(signatureHeader string, rawBody []byte, secret string, clockNow, toleranceSeconds int64, useLiveMode bool) error {
	if secret == "" {
		return nil
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return verificationError(MissingSignature, "signature header is absent")
	}

	header, err := ParseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	if header.Timestamp < clockNow-toleranceSeconds || header.Timestamp > clockNow+toleranceSeconds {
		return verificationError(StaleSignature, "timestamp %d outside %ds of %d", header.Timestamp, toleranceSeconds, clockNow)
	}

	provided := header.signatureFor(useLiveMode)
	if provided == "" {
		return verificationError(MissingSignature, "neither te nor li is present")
	}

	expected := ComputeSignature(secret, header.RawTimestamp, rawBody)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrSignatureMismatch
	}
	return nil
}

// SignatureVerifier binds VerifySignature to the configured secret, mode and clock.
type SignatureVerifier struct {
	secret    string
	liveMode  bool
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier creates a verifier. An empty secret puts it in open mode.
func NewSignatureVerifier(secret string, liveMode bool) *SignatureVerifier {
	return &SignatureVerifier{
		secret:    secret,
		liveMode:  liveMode,
		tolerance: config.SignatureTolerance,
		now:       time.Now,
	}
}

// Enabled reports whether signatures are checked at all.
func (v *SignatureVerifier) Enabled() bool {
	return v.secret != ""
}

// Verify validates the header for body at the current time.
func (v *SignatureVerifier) Verify(signatureHeader string, rawBody []byte) error {
	if !v.Enabled() {
		logging.Debugf("Webhook signature verification disabled, accepting payload of %d bytes", len(rawBody))
		return nil
	}
	return VerifySignature(signatureHeader, rawBody, v.secret, v.now().Unix(), int64(v.tolerance/time.Second), v.liveMode)
}
