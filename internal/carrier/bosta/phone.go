package bosta

import "strings"

// NormalizeEgyptPhone rewrites local Egyptian mobile numbers into the
// +20 international form the rest of the system stores.
func NormalizeEgyptPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if phone == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(phone, "+2"):
		return phone
	case strings.HasPrefix(phone, "002"):
		return "+" + phone[2:]
	case strings.HasPrefix(phone, "20") && len(phone) >= 12:
		return "+" + phone
	case strings.HasPrefix(phone, "01") && len(phone) == 11:
		return "+2" + phone
	default:
		return phone
	}
}
