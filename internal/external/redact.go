package external

// RedactPhone masks all but the last three digits of a phone number for
// logging. "+94771234567" becomes "+********567".
func RedactPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	out := []byte(phone)
	for i := 0; i < len(out)-3; i++ {
		if out[i] >= '0' && out[i] <= '9' {
			out[i] = '*'
		}
	}
	return string(out)
}
