package reconcile

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	apperrors "hotelbook/internal/errors"
)

// SignatureHeader carries "t=<unix>,te=<test sig>,li=<live sig>".
const SignatureHeader = "Paymongo-Signature"

// VerifySignature checks the webhook signature, an HMAC-SHA256 of
// "<t>.<body>" keyed with the webhook secret. Either the test or the live
// signature may match.
func VerifySignature(header string, body []byte, secret string) error {
	parts := map[string]string{}
	for _, kv := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if ok {
			parts[k] = v
		}
	}

	ts := parts["t"]
	if ts == "" || (parts["te"] == "" && parts["li"] == "") {
		return apperrors.NewValidation("invalid_signature", "webhook signature header is malformed")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, key := range []string{"te", "li"} {
		got, err := hex.DecodeString(parts[key])
		if err == nil && len(got) > 0 && hmac.Equal(got, expected) {
			return nil
		}
	}
	return apperrors.NewValidation("invalid_signature", "webhook signature does not match")
}

// Sign produces a header value for body; used by tests and the smoke script.
func Sign(ts string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	return "t=" + ts + ",te=" + hex.EncodeToString(mac.Sum(nil)) + ",li="
}
