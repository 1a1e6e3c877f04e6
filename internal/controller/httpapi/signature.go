package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader заголовок с hex HMAC-SHA256 тела запроса
const SignatureHeader = "X-Signature"

// VerifyWebhookHMAC сверяет подпись тела за постоянное время.
// Подпись принимается с префиксом "sha256=" и без него.
func VerifyWebhookHMAC(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return errors.New("webhook HMAC: secret is empty")
	}
	if len(body) == 0 {
		return errors.New("webhook HMAC: body is empty")
	}
	if signature == "" {
		return errors.New("webhook HMAC: signature is empty")
	}

	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return fmt.Errorf("webhook HMAC: invalid hex signature: %w", err)
	}

	if !hmac.Equal(SignBody(secret, body), got) {
		return errors.New("webhook HMAC: signature mismatch")
	}
	return nil
}

// SignBody считает HMAC-SHA256 тела
func SignBody(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
