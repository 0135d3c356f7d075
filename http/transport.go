// Package http exposes a calculator session over a small JSON HTTP
// API, an alternative to the stdio JSON-RPC surface for clients that
// prefer plain requests.
package http

import (
	"encoding/json"
	"io"
	"net/http"

	"nlcalc/rpc"
	"nlcalc/session"
)

// Server dependencies for HTTP Server functions
type Server struct {
	Service session.Service
	router  http.ServeMux
}

func NewServer(s session.Service) *Server {
	server := &Server{
		Service: s,
		router:  http.ServeMux{},
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("/api/eval", s.eval())
	s.router.Handle("/api/totals", s.totals())
	s.router.Handle("/api/variables", s.variables())
	s.router.Handle("/api/clear", s.clear())
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// eval produces the HTTP handler for evaluating one line
func (s *Server) eval() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		Line    string `json:"line"`
		Preview bool   `json:"preview,omitempty"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		rw.Header().Set("Content-Type", "application/json")

		bytes, err := io.ReadAll(r.Body)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			rw.Write([]byte(`{"error": "invalid request"}`))
			return
		}

		var request request
		err = json.Unmarshal(bytes, &request)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			rw.Write([]byte(`{"error": "invalid json"}`))
			return
		}

		var res session.LineResult
		if request.Preview {
			res = s.Service.EvaluatePreview(request.Line)
		} else {
			res = s.Service.Evaluate(request.Line)
		}
		writeJson(rw, rpc.FromValue(res.Value))
	}
}

// totals produces the HTTP handler for the grouped totals
func (s *Server) totals() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		totals := s.Service.GroupedTotals()
		results := make([]rpc.Result, len(totals))
		for i, v := range totals {
			results[i] = rpc.FromValue(v)
		}
		writeJson(rw, results)
	}
}

// variables produces the HTTP handler for the variable listing
func (s *Server) variables() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		vars := s.Service.Variables()
		results := make([]rpc.Variable, len(vars))
		for i, nv := range vars {
			results[i] = rpc.Variable{Name: nv.Name, Result: rpc.FromValue(nv.Value)}
		}
		writeJson(rw, results)
	}
}

// clear produces the HTTP handler for resetting the session
func (s *Server) clear() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.Service.Clear()
		rw.WriteHeader(http.StatusNoContent)
	}
}

func writeJson(rw http.ResponseWriter, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write([]byte(`{"error": "encoding response"}`))
		return
	}
	rw.Write(bytes)
}
