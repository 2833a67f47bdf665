package controllers

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"zen":"Design for failure."}`)
	secret := "webhook-secret"
	// Precomputed HMAC-SHA256 of body under secret.
	good := "sha256=4c8dcf815a58794a93c960a626eb404e36e6b2f25204d10a1ab9a70e18a9d9c9"

	tests := []struct {
		name      string
		message   []byte
		signature string
		secret    string
		want      bool
	}{
		{"valid signature", body, good, secret, true},
		{"wrong secret", body, good, "other-secret", false},
		{"tampered body", []byte(`{"zen":"Move fast."}`), good, secret, false},
		{"missing prefix", body, "4c8dcf815a58794a93c960a626eb404e36e6b2f25204d10a1ab9a70e18a9d9c9", secret, false},
		{"wrong prefix", body, "sha1=4c8dcf815a58794a93c960a626eb404e36e6b2f25204d10a1ab9a70e18a9d9c9", secret, false},
		{"not hex", body, "sha256=zzzz", secret, false},
		{"empty signature", body, "", secret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifySignature(tt.message, tt.signature, tt.secret); got != tt.want {
				t.Errorf("verifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
