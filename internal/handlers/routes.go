package handlers

import (
	"net/http"
)

// Routes registers every endpoint and wraps the mux in CORS and, when
// configured, request metrics.
func (h *Handler) Routes(allowedOrigin string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/predict", h.Predict)
	mux.HandleFunc("/predict/", h.Predict)
	mux.HandleFunc("/foods", h.Foods)
	mux.HandleFunc("/history", h.History)
	mux.HandleFunc("GET /history/{id}", h.HistoryItem)

	var handler http.Handler = mux
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
		handler = h.metrics.Middleware(handler)
	}
	return enableCORS(allowedOrigin, handler)
}

func enableCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
