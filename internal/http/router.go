package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Tickets      *TicketHandler
	VehicleTypes *VehicleTypeHandler
	Reports      *ReportHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Tickets != nil {
		mux.HandleFunc("/tickets", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Tickets.List(w, r)
			case http.MethodPost:
				cfg.Tickets.Entry(w, r)
			case http.MethodDelete:
				cfg.Tickets.Purge(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
			}
		})
		mux.HandleFunc("/tickets/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/tickets/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			if code, ok := strings.CutPrefix(rest, "barcode/"); ok {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Tickets.FindByBarcode(w, r, code)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithTicketID(r.Context(), id))

			switch action {
			case "":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Tickets.Get(w, r)
			case "exit":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Tickets.Exit(w, r)
			case "cancel":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Tickets.Cancel(w, r)
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/maintenance/cleanup-duplicates", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Tickets.CleanupDuplicates(w, r)
		})
	}

	if cfg.VehicleTypes != nil {
		mux.HandleFunc("/vehicle-types", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.VehicleTypes.List(w, r)
			case http.MethodPost:
				cfg.VehicleTypes.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/vehicle-types/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/vehicle-types/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithVehicleTypeID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				cfg.VehicleTypes.Update(w, r)
			case http.MethodDelete:
				cfg.VehicleTypes.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reports != nil {
		mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Range(w, r)
		})
		mux.HandleFunc("/reports/daily/", func(w http.ResponseWriter, r *http.Request) {
			day := strings.TrimPrefix(r.URL.Path, "/reports/daily/")
			if day == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Daily(w, r, day)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
