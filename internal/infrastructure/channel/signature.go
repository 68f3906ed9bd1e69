package channel

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"sort"
)

// Sign computes the X-Twilio-Signature value for a webhook request:
// the full request URL with every POST parameter appended in key order,
// HMAC-SHA1 over the auth token, base64 encoded.
func Sign(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := requestURL
	for _, k := range keys {
		for _, v := range form[k] {
			payload += k + v
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks the X-Twilio-Signature header for a webhook
// request.
func ValidateSignature(authToken, requestURL string, form url.Values, signature string) bool {
	expected := Sign(authToken, requestURL, form)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
