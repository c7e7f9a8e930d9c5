package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"registru/internal/access"
	"registru/internal/middleware/ratelimit"
	"registru/internal/middleware/security"
	"registru/internal/middleware/trace"
	"registru/internal/services"
)

// Options configures the API server.
type Options struct {
	JWTSecret []byte
	TokenTTL  time.Duration

	// LoginRequestsPerMinute bounds login attempts per client IP.
	LoginRequestsPerMinute int

	// TrustedProxies lists extra CIDRs whose forwarding headers are honoured.
	TrustedProxies []string

	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	reg          *services.Registry
	tokens       *tokenIssuer
	loginLimit   *ratelimit.Limiter
	detector     *security.Detector
	ready        func(ctx context.Context) error
	shutdownOnce sync.Once
}

// NewServer wires every route of the back office API.
func NewServer(addr string, reg *services.Registry, opts Options) *Server {
	mux := http.NewServeMux()

	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	limit := ratelimit.DefaultConfig()
	if opts.LoginRequestsPerMinute > 0 {
		limit.RequestsPerMinute = opts.LoginRequestsPerMinute
	}

	s := &Server{
		reg:        reg,
		tokens:     newTokenIssuer(opts.JWTSecret, ttl),
		loginLimit: ratelimit.NewLimiter(limit),
		detector:   security.NewDetector(),
		ready:      opts.Ready,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(s.screen(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/login", s.loginLimit.Middleware(s.detector.ExtractClientIP, tooManyRequests)(http.HandlerFunc(s.handleLogin)))
	mux.Handle("GET /api/session", s.authenticated(s.handleSession))

	mux.Handle("GET /api/transactions", s.view(access.ViewTransactions, s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.action(access.ViewTransactions, access.ActionCreateTransaction, s.handleCreateTransaction))

	mux.Handle("GET /api/rules", s.view(access.ViewRules, s.handleListRules))
	mux.Handle("POST /api/rules", s.action(access.ViewRules, access.ActionCreateRule, s.handleCreateRule))

	mux.Handle("GET /api/budgets", s.view(access.ViewBudgets, s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.action(access.ViewBudgets, access.ActionSaveBudget, s.handleSaveBudget))

	mux.Handle("GET /api/allocations", s.view(access.ViewAllocations, s.handleListAllocations))
	mux.Handle("POST /api/allocations/run", s.action(access.ViewAllocations, access.ActionRunAllocation, s.handleRunAllocation))

	mux.Handle("GET /api/exports", s.view(access.ViewExports, s.handleListExports))
	mux.Handle("GET /api/exports/systems", s.view(access.ViewExports, s.handleExportSystems))
	mux.Handle("POST /api/exports/run", s.action(access.ViewExports, access.ActionRunExport, s.handleRunExport))

	mux.Handle("GET /api/employees", s.view(access.ViewEmployees, s.handleListEmployees))
	mux.Handle("POST /api/employees", s.action(access.ViewEmployees, access.ActionCreateEmployee, s.handleCreateEmployee))
	mux.Handle("GET /api/payroll", s.view(access.ViewEmployees, s.handleListPayroll))
	mux.Handle("POST /api/payroll", s.action(access.ViewEmployees, access.ActionCalculatePayroll, s.handleCalculatePayroll))

	mux.Handle("GET /api/appointments", s.view(access.ViewAppointments, s.handleListAppointments))
	mux.Handle("POST /api/appointments", s.action(access.ViewAppointments, access.ActionCreateAppointment, s.handleCreateAppointment))

	mux.Handle("GET /api/reports/income-expense", s.view(access.ViewReports, s.handleIncomeExpenseReport))
	mux.Handle("GET /api/reports/income-expense.png", s.view(access.ViewReports, s.handleIncomeExpenseChart))
	mux.Handle("GET /api/reports/budgets", s.view(access.ViewReports, s.handleBudgetReport))

	mux.Handle("GET /api/audit", s.view(access.ViewAudit, s.handleListAudit))

	return s
}

// screen logs requests that look like probes. They are still served.
func (s *Server) screen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"request_id", trace.GetRequestID(r.Context()),
				"client_ip", s.detector.ExtractClientIP(r),
				"path", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.loginLimit.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Login rate limit exceeded", "path", r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}
