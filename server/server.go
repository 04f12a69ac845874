// Package server exposes the factorization engine and the ranking policies
// over HTTP, next to the Prometheus metrics of the process.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bmfapprox/bitmat"
	"bmfapprox/bmf"
	"bmfapprox/metrics"
	"bmfapprox/ranking"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxBody bounds a request body; a 16-input table with 64 outputs fits.
const maxBody = 8 << 20

type FactorizeResponse struct {
	K              int     `json:"k"`
	Weighted       bool    `json:"weighted"`
	Tau            float64 `json:"tau"`
	Score          int64   `json:"score"`
	S              [][]int `json:"s"`
	B              [][]int `json:"b"`
	Reconstruction [][]int `json:"reconstruction"`
}

type RankRequest struct {
	Policy      string    `json:"policy"`
	Errors      []float64 `json:"errors"`
	Areas       []float64 `json:"areas"`
	InitialArea float64   `json:"initial_area"`
	Threshold   float64   `json:"threshold"`
	// PrevError and PrevArea default to the original design.
	PrevError float64  `json:"prev_error"`
	PrevArea  *float64 `json:"prev_area,omitempty"`
}

type RankResponse struct {
	Order []int `json:"order"`
}

type Server struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	gather  prometheus.Gatherer
}

// New builds a server. Metrics are served from gather; a nil gatherer
// disables /metrics.
func New(logger *zap.Logger, m *metrics.Metrics, gather prometheus.Gatherer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Server{logger: logger, metrics: m, gather: gather}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/factorize", s.factorize)
	mux.HandleFunc("/rank", s.rank)
	if s.gather != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		<-errc
		return nil
	}
}

func allowOrigins(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
}

// preflight answers OPTIONS and rejects anything but POST. It reports
// whether the handler should go on.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	allowOrigins(w)
	switch r.Method {
	case http.MethodPost:
		return true
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("could not encode response", zap.Error(err))
	}
}

func readBody(r *http.Request) (string, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return "", errors.Wrap(err, "could not read request body")
	}
	return string(body), nil
}

// factorize reads a truth table from the body, rows of 0 and 1, and the
// rank from the k query parameter.
func (s *Server) factorize(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	q := r.URL.Query()
	k, err := strconv.Atoi(q.Get("k"))
	if err != nil {
		http.Error(w, "k must be an integer", http.StatusBadRequest)
		return
	}
	weighted := false
	if v := q.Get("weighted"); v != "" {
		if weighted, err = strconv.ParseBool(v); err != nil {
			http.Error(w, "weighted must be a boolean", http.StatusBadRequest)
			return
		}
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table, err := bitmat.Parse(strings.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := bmf.Factorize(table, k, weighted)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.metrics.FactorizeSeconds.Observe(time.Since(start).Seconds())
	s.logger.Debug("factorized",
		zap.Int("rows", table.Rows()),
		zap.Int("cols", table.Cols()),
		zap.Int("k", k),
		zap.Int64("score", res.Score))

	s.writeJSON(w, FactorizeResponse{
		K:              res.K,
		Weighted:       res.Weighted,
		Tau:            res.Tau,
		Score:          res.Score,
		S:              res.S.Ints(),
		B:              res.B.Ints(),
		Reconstruction: res.Reconstruction.Ints(),
	})
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	var req RankRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "could not decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Errors) != len(req.Areas) {
		http.Error(w, "errors and areas differ in length", http.StatusBadRequest)
		return
	}
	policy, err := ranking.ParsePolicy(req.Policy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c := ranking.Candidates{
		Errors:      req.Errors,
		Areas:       req.Areas,
		InitialArea: req.InitialArea,
		Threshold:   req.Threshold,
		PrevError:   req.PrevError,
		PrevArea:    req.InitialArea,
	}
	if req.PrevArea != nil {
		c.PrevArea = *req.PrevArea
	}
	s.writeJSON(w, RankResponse{Order: policy(c)})
}
