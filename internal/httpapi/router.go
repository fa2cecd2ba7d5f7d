package httpapi

import (
	"net/http"
	"strings"
)

// RouterConfig collects the handlers and middleware the router exposes.
// AdminMiddleware guards the commitment endpoints and request resolution on
// top of the shared chain; it may be nil when no admin token is configured,
// which disables those endpoints.
type RouterConfig struct {
	Requests        *RequestHandler
	Rooms           *RoomHandler
	Commitments     *CommitmentHandler
	Audit           *AuditHandler
	Middleware      []Middleware
	AdminMiddleware Middleware
}

// NewRouter builds the HTTP routing table. Shared middleware wraps every
// route, applied so the first entry observes the request first.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Requests != nil {
		mux.HandleFunc("/requests", func(w http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodPost:
				cfg.Requests.Submit(w, req)
			default:
				methodNotAllowed(w, http.MethodPost)
			}
		})
		mux.HandleFunc("/requests/", func(w http.ResponseWriter, req *http.Request) {
			id, action, ok := splitResourcePath(req.URL.Path, "/requests/")
			if !ok {
				http.NotFound(w, req)
				return
			}
			req = req.WithContext(ContextWithRequestID(req.Context(), id))
			switch action {
			case "":
				if req.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Requests.Get(w, req)
			case "withdraw":
				if req.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Requests.Withdraw(w, req)
			case "alternatives":
				if req.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Requests.Alternatives(w, req)
			case "resolve":
				if req.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if cfg.AdminMiddleware == nil {
					http.NotFound(w, req)
					return
				}
				cfg.AdminMiddleware(http.HandlerFunc(cfg.Requests.Resolve)).ServeHTTP(w, req)
			default:
				http.NotFound(w, req)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/rooms", func(w http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, req)
			default:
				methodNotAllowed(w, http.MethodGet)
			}
		})
	}

	if cfg.Commitments != nil && cfg.AdminMiddleware != nil {
		admin := cfg.AdminMiddleware
		mux.Handle("/commitments", admin(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodPost:
				cfg.Commitments.Create(w, req)
			default:
				methodNotAllowed(w, http.MethodPost)
			}
		})))
		mux.Handle("/commitments/", admin(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, action, ok := splitResourcePath(req.URL.Path, "/commitments/")
			if !ok || action != "" {
				http.NotFound(w, req)
				return
			}
			if req.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			req = req.WithContext(ContextWithRequestID(req.Context(), id))
			cfg.Commitments.Delete(w, req)
		})))
	}

	if cfg.Audit != nil {
		mux.HandleFunc("/audit", func(w http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodGet:
				cfg.Audit.List(w, req)
			default:
				methodNotAllowed(w, http.MethodGet)
			}
		})
		mux.HandleFunc("/audit/report", func(w http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodGet:
				cfg.Audit.Report(w, req)
			default:
				methodNotAllowed(w, http.MethodGet)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		handler = cfg.Middleware[i](handler)
	}
	return handler
}

// splitResourcePath extracts the id and optional trailing action from a
// path like /requests/{id}/withdraw.
func splitResourcePath(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest == path {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if id == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		action = strings.Trim(parts[1], "/")
	}
	return id, action, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
