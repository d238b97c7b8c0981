package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

// WantsJSON reports whether the client asked for JSON explicitly and does not accept HTML.
// Wildcards such as */* do not count as accepting either.
func WantsJSON(r *http.Request) bool {
	var jsonOK, htmlOK bool
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType, q := parseMediaRange(part)
			if q <= 0 {
				continue
			}
			switch {
			case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
				jsonOK = true
			case mediaType == "text/html":
				htmlOK = true
			}
		}
	}
	return jsonOK && !htmlOK
}

func parseMediaRange(part string) (string, float64) {
	fields := strings.Split(part, ";")
	mediaType := strings.ToLower(strings.TrimSpace(fields[0]))
	q := 1.0
	for _, param := range fields[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || strings.ToLower(strings.TrimSpace(key)) != "q" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return mediaType, 0
		}
		q = parsed
	}
	return mediaType, q
}
