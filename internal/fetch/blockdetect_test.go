package fetch

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	cfHeader := http.Header{}
	cfHeader.Set("cf-ray", "8a1b2c3d4e5f")

	cloudflareServer := http.Header{}
	cloudflareServer.Set("server", "cloudflare")

	tests := []struct {
		name    string
		status  int
		header  http.Header
		body    string
		blocked bool
		kind    BlockKind
	}{
		{
			name:    "healthy page",
			status:  200,
			header:  http.Header{},
			body:    "<html><body>" + strings.Repeat("profile text ", 200) + "</body></html>",
			blocked: false,
			kind:    BlockNone,
		},
		{
			name:    "403 with cloudflare ray header",
			status:  403,
			header:  cfHeader,
			body:    "",
			blocked: true,
			kind:    BlockChallenge,
		},
		{
			name:    "503 served by cloudflare",
			status:  503,
			header:  cloudflareServer,
			body:    "",
			blocked: true,
			kind:    BlockChallenge,
		},
		{
			name:    "plain 403",
			status:  403,
			header:  http.Header{},
			body:    "Forbidden",
			blocked: true,
			kind:    BlockForbidden,
		},
		{
			name:    "browser check interstitial",
			status:  200,
			header:  http.Header{},
			body:    "<html>Checking your browser before accessing</html>",
			blocked: true,
			kind:    BlockChallenge,
		},
		{
			name:    "captcha wall",
			status:  200,
			header:  http.Header{},
			body:    "<html><div class=\"g-recaptcha\"></div></html>",
			blocked: true,
			kind:    BlockCaptcha,
		},
		{
			name:    "javascript shell",
			status:  200,
			header:  http.Header{},
			body:    "<html><noscript>Please enable JavaScript</noscript></html>",
			blocked: true,
			kind:    BlockJSShell,
		},
		{
			name:    "meta refresh shell",
			status:  200,
			header:  http.Header{},
			body:    "<html><meta http-equiv=\"refresh\" content=\"0;url=/app\"></html>",
			blocked: true,
			kind:    BlockJSShell,
		},
		{
			name:    "small but honest page",
			status:  200,
			header:  http.Header{},
			body:    "<html><body>Contact: info@tmjhelpline.in</body></html>",
			blocked: false,
			kind:    BlockNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, kind := DetectBlock(tt.status, tt.header, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
