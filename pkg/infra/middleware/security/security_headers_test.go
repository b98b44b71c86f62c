package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
)

func serveWithSecurityHeaders(t *testing.T, opts mwopts.SecurityHeadersOptions, mutate func(req *http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(SecurityHeadersWithOptions(opts))
	engine.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	w := serveWithSecurityHeaders(t, *mwopts.NewSecurityHeadersOptions(), nil)

	if got := w.Header().Get(HeaderXFrameOptions); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := w.Header().Get(HeaderXContentTypeOptions); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get(HeaderXXSSProtection); got != "1; mode=block" {
		t.Errorf("X-XSS-Protection = %q, want '1; mode=block'", got)
	}
	if got := w.Header().Get(HeaderReferrerPolicy); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}
	// CSP 默认为空，不应设置
	if got := w.Header().Get(HeaderContentSecurityPolicy); got != "" {
		t.Errorf("Content-Security-Policy should be empty by default, got %q", got)
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opts := *mwopts.NewSecurityHeadersOptions()

	// 普通 HTTP 请求不应携带 HSTS
	w := serveWithSecurityHeaders(t, opts, nil)
	if got := w.Header().Get(HeaderStrictTransportSecurity); got != "" {
		t.Errorf("HSTS should not be set over HTTP, got %q", got)
	}

	// TLS 连接应携带 HSTS
	w = serveWithSecurityHeaders(t, opts, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})
	hsts := w.Header().Get(HeaderStrictTransportSecurity)
	if !strings.Contains(hsts, "max-age=31536000") {
		t.Errorf("HSTS should contain max-age, got %q", hsts)
	}
	if !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("HSTS should contain includeSubDomains, got %q", hsts)
	}
	if strings.Contains(hsts, "preload") {
		t.Errorf("HSTS should not contain preload by default, got %q", hsts)
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	opts := *mwopts.NewSecurityHeadersOptions()

	w := serveWithSecurityHeaders(t, opts, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	if got := w.Header().Get(HeaderStrictTransportSecurity); got == "" {
		t.Error("HSTS should be set when X-Forwarded-Proto is https")
	}

	w = serveWithSecurityHeaders(t, opts, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "http")
	})
	if got := w.Header().Get(HeaderStrictTransportSecurity); got != "" {
		t.Errorf("HSTS should not be set when X-Forwarded-Proto is http, got %q", got)
	}
}

func TestSecurityHeaders_HSTSPreload(t *testing.T) {
	opts := *mwopts.NewSecurityHeadersOptions()
	opts.HSTSPreload = true

	w := serveWithSecurityHeaders(t, opts, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})
	hsts := w.Header().Get(HeaderStrictTransportSecurity)
	if !strings.Contains(hsts, "preload") {
		t.Errorf("HSTS should contain preload, got %q", hsts)
	}
}

func TestSecurityHeaders_DisabledHeaders(t *testing.T) {
	opts := mwopts.SecurityHeadersOptions{
		EnableHSTS:               false,
		EnableFrameOptions:       false,
		EnableContentTypeOptions: false,
		EnableXSSProtection:      false,
	}

	w := serveWithSecurityHeaders(t, opts, nil)

	for _, header := range []string{
		HeaderXFrameOptions,
		HeaderXContentTypeOptions,
		HeaderXXSSProtection,
		HeaderStrictTransportSecurity,
		HeaderContentSecurityPolicy,
		HeaderReferrerPolicy,
	} {
		if got := w.Header().Get(header); got != "" {
			t.Errorf("header %s should not be set, got %q", header, got)
		}
	}
}

func TestSecurityHeaders_CustomValues(t *testing.T) {
	opts := mwopts.SecurityHeadersOptions{
		EnableFrameOptions:    true,
		FrameOptionsValue:     "SAMEORIGIN",
		EnableXSSProtection:   true,
		XSSProtectionValue:    "0",
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}

	w := serveWithSecurityHeaders(t, opts, nil)

	if got := w.Header().Get(HeaderXFrameOptions); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q, want SAMEORIGIN", got)
	}
	if got := w.Header().Get(HeaderXXSSProtection); got != "0" {
		t.Errorf("X-XSS-Protection = %q, want 0", got)
	}
	if got := w.Header().Get(HeaderContentSecurityPolicy); got != "default-src 'self'" {
		t.Errorf("Content-Security-Policy = %q", got)
	}
	if got := w.Header().Get(HeaderReferrerPolicy); got != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q", got)
	}
}

func TestSecurityHeaders_DefaultConstructor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(SecurityHeaders())
	engine.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get(HeaderXContentTypeOptions); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestIsHTTPSConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		mutate func(req *http.Request)
		want   bool
	}{
		{
			name:   "plain http",
			mutate: nil,
			want:   false,
		},
		{
			name: "tls connection",
			mutate: func(req *http.Request) {
				req.TLS = &tls.ConnectionState{}
			},
			want: true,
		},
		{
			name: "forwarded proto https",
			mutate: func(req *http.Request) {
				req.Header.Set("X-Forwarded-Proto", "HTTPS")
			},
			want: true,
		},
		{
			name: "forwarded proto http",
			mutate: func(req *http.Request) {
				req.Header.Set("X-Forwarded-Proto", "http")
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.mutate != nil {
				tt.mutate(req)
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req

			if got := isHTTPSConnection(c); got != tt.want {
				t.Errorf("isHTTPSConnection() = %v, want %v", got, tt.want)
			}
		})
	}
}
