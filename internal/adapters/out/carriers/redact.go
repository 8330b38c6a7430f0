package carriers

import (
	"net/http"
	"regexp"
	"strings"
)

const redacted = "REDACTED"

var secretParam = regexp.MustCompile(`(?i)(api_key|subscription_key|access_key|site_id)=[^&\s"]+`)

// secretHeaders are masked whenever request headers are logged.
var secretHeaders = map[string]struct{}{
	"starshipit-api-key":        {},
	"ocp-apim-subscription-key": {},
	"access_key":                {},
	"site_id":                   {},
	"authorization":             {},
}

// RedactURL masks credential query parameters. It also works on error strings
// that embed a URL.
func RedactURL(s string) string {
	return secretParam.ReplaceAllString(s, "${1}="+redacted)
}

// RedactHeaders flattens h for logging with credential headers masked.
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, secret := secretHeaders[strings.ToLower(k)]; secret {
			out[k] = redacted
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}
