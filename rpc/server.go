// Package rpc exposes a calculator session over JSON-RPC 2.0 on a byte
// stream, one plain JSON object per message. Editor plugins drive the
// engine through this surface.
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"nlcalc/rates"
	"nlcalc/session"
	"nlcalc/value"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// Result is the wire form of an evaluated value.
type Result struct {
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	Unit    string `json:"unit,omitempty"`
	Message string `json:"message,omitempty"`
	Display string `json:"display"`
}

// Variable is a named binding on the wire.
type Variable struct {
	Name string `json:"name"`
	Result
}

// FromValue converts an evaluated value to its wire form.
func FromValue(v value.Value) Result {
	res := Result{Type: v.Kind().String(), Display: v.String()}
	switch v.Kind() {
	case value.KindError:
		res.Message = v.Message()
		return res
	case value.KindEmpty:
		return res
	}
	amount, _ := v.AsDecimal()
	res.Value = amount.String()
	switch v.Kind() {
	case value.KindCurrency:
		res.Unit = string(v.Code())
	case value.KindUnit, value.KindCompoundUnit:
		res.Unit = v.Compound().Symbol
	}
	return res
}

// Server serves one session over JSON-RPC.
type Server struct {
	session session.Service
	rates   rates.Service
}

// NewServer constructs a server around a session. rateService may be
// nil, in which case reload_rates reports an error.
func NewServer(s session.Service, rateService rates.Service) *Server {
	return &Server{session: s, rates: rateService}
}

// Serve runs the JSON-RPC loop on the stream until it disconnects.
func (s *Server) Serve(ctx context.Context, stream io.ReadWriteCloser) {
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(stream, jsonrpc2.PlainObjectCodec{}),
		handler(s))
	<-conn.DisconnectNotify()
}

// ServeStdio runs the JSON-RPC loop on standard input and output.
func (s *Server) ServeStdio(ctx context.Context) {
	s.Serve(ctx, transport{os.Stdin, os.Stdout})
}

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	if err := c.in.Close(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}

type method func(context.Context, json.RawMessage) (any, error)

func handler(s *Server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"eval":          s.eval,
		"eval_lines":    s.evalLines,
		"clear":         s.clear,
		"get_totals":    s.getTotals,
		"get_variables": s.getVariables,
		"reload_rates":  s.reloadRates,
	})
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *Server) eval(_ context.Context, rawParams json.RawMessage) (any, error) {
	var params struct {
		Line    string `json:"line"`
		Preview bool   `json:"preview,omitempty"`
	}
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	if params.Preview {
		return FromValue(s.session.EvaluatePreview(params.Line).Value), nil
	}
	return FromValue(s.session.Evaluate(params.Line).Value), nil
}

// evalLines re-evaluates a whole buffer: the session restarts from a
// clean slate and every line is run in order.
func (s *Server) evalLines(_ context.Context, rawParams json.RawMessage) (any, error) {
	var params struct {
		Lines []string `json:"lines"`
	}
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.session.Clear()
	results := make([]Result, len(params.Lines))
	for i, line := range params.Lines {
		results[i] = FromValue(s.session.Evaluate(line).Value)
	}
	return results, nil
}

func (s *Server) clear(_ context.Context, _ json.RawMessage) (any, error) {
	s.session.Clear()
	return nil, nil
}

func (s *Server) getTotals(_ context.Context, _ json.RawMessage) (any, error) {
	totals := s.session.GroupedTotals()
	results := make([]Result, len(totals))
	for i, v := range totals {
		results[i] = FromValue(v)
	}
	return results, nil
}

func (s *Server) getVariables(_ context.Context, _ json.RawMessage) (any, error) {
	vars := s.session.Variables()
	results := make([]Variable, len(vars))
	for i, nv := range vars {
		results[i] = Variable{Name: nv.Name, Result: FromValue(nv.Value)}
	}
	return results, nil
}

func (s *Server) reloadRates(ctx context.Context, _ json.RawMessage) (any, error) {
	if s.rates == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "no rate source configured"}
	}
	raw, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	s.session.ApplyRawRates(raw)
	return map[string]int{"count": len(raw)}, nil
}
