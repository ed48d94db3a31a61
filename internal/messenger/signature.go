package messenger

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ValidSignature checks the X-Hub-Signature header against the raw request
// body. The header carries "sha1=" followed by the hex HMAC-SHA1 of the body
// keyed with the app secret. Comparison is constant time.
func ValidSignature(body []byte, appSecret, header string) bool {
	expected, ok := strings.CutPrefix(header, "sha1=")
	if !ok {
		return false
	}
	mac := hmac.New(sha1.New, []byte(appSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(expected))
}
