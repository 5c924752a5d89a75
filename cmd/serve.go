package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/report"
	"github.com/sells-group/holdings-cli/internal/stats"
	"github.com/sells-group/holdings-cli/internal/timeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reporting API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(st report.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/filers", func(w http.ResponseWriter, req *http.Request) {
		filers, err := st.ListFilers(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		type row struct {
			CIK    string                `json:"cik"`
			Name   string                `json:"name"`
			Latest *model.LatestActivity `json:"latest,omitempty"`
		}
		out := make([]row, 0, len(filers))
		for _, f := range filers {
			out = append(out, row{CIK: f.CIK, Name: f.Name, Latest: f.Latest})
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/filers/{cik}", func(w http.ResponseWriter, req *http.Request) {
		f, err := st.GetFiler(req.Context(), chi.URLParam(req, "cik"))
		if err != nil {
			writeError(w, err)
			return
		}
		if f == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "filer not found"})
			return
		}
		writeJSON(w, http.StatusOK, f)
	})

	r.Get("/filers/{cik}/timeline", func(w http.ResponseWriter, req *http.Request) {
		f, err := st.GetFiler(req.Context(), chi.URLParam(req, "cik"))
		if err != nil {
			writeError(w, err)
			return
		}
		if f == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "filer not found"})
			return
		}

		q := req.URL.Query()
		quarters, _ := strconv.Atoi(q.Get("quarters"))
		tl, err := timeline.Build(f, timeline.Options{
			Quarters:   quarters,
			SortBy:     q.Get("sort"),
			ChangeType: model.ChangeType(q.Get("change_type")),
		})
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, tl)
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		topN, _ := strconv.Atoi(req.URL.Query().Get("top"))
		if topN <= 0 {
			topN = 10
		}
		ov, err := stats.Compute(req.Context(), st, topN)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
