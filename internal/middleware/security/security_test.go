package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetector_Inspect(t *testing.T) {
	longQuery := "/api/ledger?q=" + strings.Repeat("a", 2100)
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		xff    string
		want   Reason
	}{
		{"api call", http.MethodGet, "/api/ledger?month=03/2025", "curl/8.0", "", ReasonNone},
		{"category entries", http.MethodGet, "/api/categories/3/entries?month=01/2025", "", "", ReasonNone},
		{"health", http.MethodGet, "/healthz", "", "", ReasonNone},
		{"encoded traversal", http.MethodGet, "/api/%2e%2e/etc/passwd", "", "", ReasonTraversal},
		{"dotenv probe", http.MethodGet, "/.env", "", "", ReasonProbePath},
		{"wordpress probe", http.MethodGet, "/wp-login.php", "", "", ReasonProbePath},
		{"script in query", http.MethodGet, "/api/ledger?next=javascript:alert(1)", "", "", ReasonInjection},
		{"encoded sql in query", http.MethodGet, "/api/ledger?direction=x%27+UNION+SELECT+1", "", "", ReasonInjection},
		{"scanner agent", http.MethodGet, "/api/ledger", "sqlmap/1.7", "", ReasonScanner},
		{"trace method", "TRACE", "/api/ledger", "", "", ReasonMethod},
		{"patch method", http.MethodPatch, "/api/ledger/1", "", "", ReasonMethod},
		{"oversized url", http.MethodGet, longQuery, "", "", ReasonOversized},
		{"long forward chain", http.MethodGet, "/api/me", "", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6", ReasonForwardChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.Inspect(req); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
			if got := d.GetMetrics().SuspiciousRequests; (got == 1) != (tt.want != ReasonNone) {
				t.Errorf("SuspiciousRequests = %d", got)
			}
		})
	}
}

func TestDetector_ExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.7:5000", "", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:443", "198.51.100.4, 10.0.0.2", "198.51.100.4"},
		{"spoofed leftmost hop", "10.0.0.2:443", "1.2.3.4, 198.51.100.4", "198.51.100.4"},
		{"ipv6 loopback proxy", "[::1]:443", "2001:db8::7", "2001:db8::7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", "198.51.100.4", "203.0.113.7"},
		{"bad forwarded value", "127.0.0.1:80", "nonsense", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	d := NewDetector()
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy() should reject invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set("X-Real-IP", "198.51.100.9")
	if got := d.ExtractClientIP(req); got != "198.51.100.9" {
		t.Errorf("ExtractClientIP() via added proxy = %q", got)
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if d.GetMetrics().SuspiciousRequests != 1 {
		t.Errorf("SuspiciousRequests = %d, want 1", d.GetMetrics().SuspiciousRequests)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}
