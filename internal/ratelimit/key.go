package ratelimit

import "strings"

// GSTKey builds a limiter key for GST verification attempts from one
// client address.
func GSTKey(clientIP string) string {
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		return ""
	}
	return "gst:ip:" + clientIP
}

// OTPResendKey builds a limiter key for OTP resend attempts for one email.
func OTPResendKey(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return "otp:resend:" + email
}
