package fetch

import (
	"net/http"
	"strings"
)

// BlockKind describes why a page is unusable.
type BlockKind string

const (
	BlockNone      BlockKind = ""
	BlockRobots    BlockKind = "robots"    // robots.txt disallow, never fetched
	BlockForbidden BlockKind = "forbidden" // plain 403
	BlockChallenge BlockKind = "challenge" // anti-bot interstitial
	BlockCaptcha   BlockKind = "captcha"
	BlockJSShell   BlockKind = "js_shell" // empty shell that renders via JS only
)

// DetectBlock inspects a response for signs the real content was
// withheld. A blocked page is an absent source, not an error.
func DetectBlock(statusCode int, header http.Header, body []byte) (bool, BlockKind) {
	if statusCode == 403 || statusCode == 503 {
		if header.Get("cf-ray") != "" || header.Get("cf-cache-status") != "" ||
			strings.EqualFold(header.Get("server"), "cloudflare") {
			return true, BlockChallenge
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockChallenge
	}

	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	if statusCode == 403 {
		return true, BlockForbidden
	}

	return false, BlockNone
}
