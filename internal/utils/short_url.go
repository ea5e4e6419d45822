package utils

import "strings"

// ShortURL joins the public base URL and a short key
func ShortURL(baseURL, shortKey string) string {
	return strings.TrimRight(baseURL, "/") + "/" + shortKey
}
