package adapthttp

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"hyperlocal/internal/domain"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	logContextKey       contextKey = "log"
	routeContextKey     contextKey = "route"
)

const (
	msgMissingAuth  = "Missing authorization header"
	msgInvalidToken = "Invalid token"
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
)

// PrincipalFrom returns the principal attached by the auth middleware.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(domain.Principal)
	return p, ok
}

// mustPrincipal is for handlers mounted behind requireAuth only.
func mustPrincipal(r *http.Request) domain.Principal {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		panic(fmt.Sprintf("adapthttp: no principal on %s %s", r.Method, r.URL.Path))
	}
	return p
}

func withPrincipal(r *http.Request, p domain.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalContextKey, p))
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	return h[len(bearerPrefix):], true
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, msgMissingAuth)
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			logFrom(r).WithError(err).Debug("token rejected")
			writeAuthError(w, msgInvalidToken)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, domain.Principal{UserID: claims.Sub}))
	})
}

// optionalAuth attaches a principal when a valid token is present and never rejects.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := s.tokens.Verify(token); err == nil {
				r = withPrincipal(r, domain.Principal{UserID: claims.Sub})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly runs after requireAuth and admits principals whose stored access
// panel is admin. Others get the same answer as a bad token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := mustPrincipal(r)
		user, err := s.auth.Me(r.Context(), p)
		switch {
		case domain.KindOf(err) == domain.KindNotFound:
			writeAuthError(w, msgInvalidToken)
			return
		case err != nil:
			s.fail(w, r, err)
			return
		case user.AccessPanel == nil || *user.AccessPanel != domain.AccessPanelAdmin:
			logFrom(r).WithField("user_id", p.UserID).Warn("non-admin token on admin route")
			writeAuthError(w, msgInvalidToken)
			return
		}
		p.AccessPanel = domain.AccessPanelAdmin
		next.ServeHTTP(w, withPrincipal(r, p))
	})
}

// cors allows any origin, method in the list and requested header.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH")
		if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		h.Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeTag collects the matched route template for logs and metrics.
type routeTag struct{ name string }

func routeFrom(r *http.Request) string {
	if t, ok := r.Context().Value(routeContextKey).(*routeTag); ok && t.name != "" {
		return t.name
	}
	return "unmatched"
}

// tagRoute is installed on every router with Use so the innermost match wins.
func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t, ok := r.Context().Value(routeContextKey).(*routeTag); ok {
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					t.name = tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func logFrom(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(logContextKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

// loggingMiddleware assigns a request ID, exposes a request-scoped logger and
// logs one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		entry := s.log.WithField("request_id", id)
		ctx := context.WithValue(r.Context(), logContextKey, logrus.FieldLogger(entry))
		ctx = context.WithValue(ctx, routeContextKey, &routeTag{})
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		entry.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       routeFrom(r),
			"status":      rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	})
}

// recoverer turns handler panics into 500 responses.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logFrom(r).WithFields(logrus.Fields{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			}).Error("handler panic")
			if rw, ok := w.(*responseWriter); ok && rw.written {
				return
			}
			writeFailure(w, http.StatusInternalServerError, domain.KindInternal.UserMessage())
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
