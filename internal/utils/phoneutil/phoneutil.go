// Package phoneutil normalizes phone numbers between the channel provider's
// addressing format ("whatsapp:+155512345") and the bare E.164 form stored
// in the contact table.
package phoneutil

import "strings"

const whatsappPrefix = "whatsapp:"

// Strip removes the whatsapp: prefix if present.
func Strip(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), whatsappPrefix)
}

// WhatsApp ensures the whatsapp: prefix is present.
func WhatsApp(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}
