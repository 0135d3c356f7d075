package session

import (
	"time"

	"github.com/go-kit/log"
	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/eval"
	"nlcalc/value"
)

// loggingService decorates a session.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Evaluate(line string) (res LineResult) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "evaluate",
			"input", line,
			"result", res.Value.String(),
			"kind", res.Value.Kind(),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.Evaluate(line)
}

func (s *loggingService) EvaluatePreview(line string) (res LineResult) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "evaluate_preview",
			"input", line,
			"result", res.Value.String(),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.EvaluatePreview(line)
}

func (s *loggingService) Clear() {
	s.logger.Log("method", "clear")
	s.next.Clear()
}

func (s *loggingService) Variables() []eval.NamedValue {
	return s.next.Variables()
}

func (s *loggingService) SetVariable(name string, v value.Value) {
	s.next.SetVariable(name, v)
}

func (s *loggingService) Results() []LineResult {
	return s.next.Results()
}

func (s *loggingService) Sum() value.Value {
	return s.next.Sum()
}

func (s *loggingService) GroupedTotals() []value.Value {
	return s.next.GroupedTotals()
}

func (s *loggingService) SetExchangeRate(from, to currency.Code, rate decimal.Decimal) {
	s.logger.Log("method", "set_exchange_rate", "from", from, "to", to, "rate", rate)
	s.next.SetExchangeRate(from, to, rate)
}

func (s *loggingService) ApplyRawRates(raw map[string]float64) {
	s.logger.Log("method", "apply_raw_rates", "count", len(raw))
	s.next.ApplyRawRates(raw)
}
