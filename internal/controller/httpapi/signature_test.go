package httpapi

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookHMAC(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte(`{"meta":{"event_name":"subscription_created"}}`)
	valid := hex.EncodeToString(SignBody(secret, body))

	tests := []struct {
		name      string
		secret    []byte
		body      []byte
		signature string
		wantErr   bool
	}{
		{name: "valid", secret: secret, body: body, signature: valid},
		{name: "valid with prefix", secret: secret, body: body, signature: "sha256=" + valid},
		{name: "empty signature", secret: secret, body: body, signature: "", wantErr: true},
		{name: "empty secret", secret: nil, body: body, signature: valid, wantErr: true},
		{name: "empty body", secret: secret, body: nil, signature: valid, wantErr: true},
		{name: "not hex", secret: secret, body: body, signature: "zz", wantErr: true},
		{name: "other secret", secret: []byte("other"), body: body, signature: valid, wantErr: true},
		{name: "tampered body", secret: secret, body: append([]byte(" "), body...), signature: valid, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhookHMAC(tt.secret, tt.body, tt.signature)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
