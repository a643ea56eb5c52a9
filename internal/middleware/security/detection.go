package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// Reason names why a request was rejected.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonTraversal    Reason = "path_traversal"
	ReasonProbePath    Reason = "probe_path"
	ReasonInjection    Reason = "query_injection"
	ReasonScanner      Reason = "scanner_agent"
	ReasonMethod       Reason = "method"
	ReasonOversized    Reason = "oversized_url"
	ReasonForwardChain Reason = "forward_chain"
)

const (
	maxURLLength   = 2048
	maxForwardHops = 5
)

// routePrefixes are the only paths the API serves.
var routePrefixes = []string{"/api/", "/healthz", "/readyz", "/metrics"}

// probeMarkers show up in scans for other software; none is a route of ours.
var probeMarkers = []string{
	".php", ".asp", ".env", ".git", ".ssh", "wp-", "phpmyadmin", "cgi-bin", "actuator",
}

// injectionMarkers are checked against decoded query values. Titles and notes
// travel in JSON bodies, so a query never needs them.
var injectionMarkers = []string{
	"<script", "javascript:", "union select", "etc/passwd", "eval(", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "nuclei",
}

var allowedMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodDelete: true, http.MethodHead: true, http.MethodOptions: true,
}

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector rejects requests that cannot be API calls and resolves the client
// address behind trusted proxies.
type Detector struct {
	suspicious atomic.Int64
	invalidIPs atomic.Int64

	mu             sync.RWMutex
	trustedProxies []netip.Prefix
}

// NewDetector trusts loopback and the private ranges as proxies.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
		},
	}
}

// Inspect returns the first reason r looks hostile, or ReasonNone.
func (d *Detector) Inspect(r *http.Request) Reason {
	reason := inspect(r)
	if reason != ReasonNone {
		d.suspicious.Add(1)
	}
	return reason
}

// DetectSuspiciousRequest reports whether Inspect finds anything.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	return d.Inspect(r) != ReasonNone
}

func inspect(r *http.Request) Reason {
	if !allowedMethods[r.Method] {
		return ReasonMethod
	}
	if len(r.URL.String()) > maxURLLength {
		return ReasonOversized
	}

	path := strings.ToLower(r.URL.Path)
	raw := strings.ToLower(r.URL.EscapedPath())
	if strings.Contains(path, "..") || strings.Contains(raw, "%2e%2e") || strings.Contains(path, "\\") {
		return ReasonTraversal
	}
	if !isRoute(path) {
		for _, m := range probeMarkers {
			if strings.Contains(path, m) {
				return ReasonProbePath
			}
		}
	}

	if r.URL.RawQuery != "" {
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return ReasonInjection
		}
		for _, vs := range values {
			for _, v := range vs {
				if containsAny(strings.ToLower(v), injectionMarkers) {
					return ReasonInjection
				}
			}
		}
	}

	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) {
		return ReasonScanner
	}

	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") >= maxForwardHops {
		return ReasonForwardChain
	}
	return ReasonNone
}

func isRoute(path string) bool {
	for _, p := range routePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the connecting address, or, when that is a trusted
// proxy, the rightmost X-Forwarded-For hop that is not one. X-Real-IP is used
// when the forwarded chain has no usable hop.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	direct, err := netip.ParseAddr(host)
	if err != nil {
		d.invalidIPs.Add(1)
		return host
	}
	if !d.isTrustedProxy(direct) {
		return direct.String()
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !d.isTrustedProxy(addr) {
			return addr.String()
		}
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return direct.String()
}

func (d *Detector) isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIPs.Load(),
	}
}

// AddTrustedProxy trusts forwarded headers sent from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	d.mu.Unlock()
	return nil
}

// Middleware rejects hostile requests with 400 and logs the reason.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Inspect(r); reason != ReasonNone {
			slog.WarnContext(r.Context(), "Suspicious request blocked",
				"reason", string(reason),
				"client_ip", d.ExtractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path,
				"user_agent", r.Header.Get("User-Agent"))
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
