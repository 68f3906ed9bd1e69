package channel

import (
	"net/url"
	"testing"
)

func TestValidateSignature(t *testing.T) {
	// Reference vector from the provider's security documentation.
	authToken := "12345"
	requestURL := "https://mycompany.com/myapp.php?foo=1&bar=2"
	form := url.Values{
		"CallSid": {"CA1234567890ABCDE"},
		"Caller":  {"+12349013030"},
		"Digits":  {"1234"},
		"From":    {"+12349013030"},
		"To":      {"+18005551212"},
	}
	signature := "0/KCTR6DLpKmkAf8muzZqo1nDgQ="

	if !ValidateSignature(authToken, requestURL, form, signature) {
		t.Error("valid signature rejected")
	}
	if ValidateSignature(authToken, requestURL, form, "bogus") {
		t.Error("invalid signature accepted")
	}
	if ValidateSignature("wrong-token", requestURL, form, signature) {
		t.Error("signature accepted with wrong auth token")
	}

	tampered := url.Values{}
	for k, v := range form {
		tampered[k] = v
	}
	tampered.Set("Digits", "9999")
	if ValidateSignature(authToken, requestURL, tampered, signature) {
		t.Error("signature accepted for tampered form body")
	}
}

func TestValidateSignatureEmptyForm(t *testing.T) {
	// GET-style validation signs only the URL.
	if ValidateSignature("token", "https://example.com/webhook", url.Values{}, "bogus") {
		t.Error("invalid signature accepted for empty form")
	}
}
