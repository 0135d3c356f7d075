// Package rates fetches live exchange rates: USD-base fiat rates from
// the open.er-api.com API and USD prices for crypto assets from the
// CoinGecko API. Results are raw code -> rate maps; the session's rate
// graph knows how to absorb them.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nlcalc/currency"
)

const (
	FiatUrlBase   = "https://open.er-api.com/v6/latest/USD"
	CryptoUrlBase = "https://api.coingecko.com/api/v3/simple/price"
)

// Service fetches the current exchange rates. Fiat codes map to
// "1 USD = rate units", crypto codes to "1 token = rate USD".
type Service interface {
	Rates(ctx context.Context) (map[string]float64, error)
}

// service fetches from the public rate APIs
type service struct {
	fiatUrl   string
	cryptoUrl string

	// client for HTTP requests
	client http.Client
}

// NewService constructs a valid rates Service.
func NewService() Service {
	return &service{
		fiatUrl:   FiatUrlBase,
		cryptoUrl: CryptoUrlBase,
		client: http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *service) Rates(ctx context.Context) (map[string]float64, error) {
	out := map[string]float64{}
	if err := s.fiatRates(ctx, out); err != nil {
		return nil, fmt.Errorf("fiat rates: %w", err)
	}
	if err := s.cryptoRates(ctx, out); err != nil {
		return nil, fmt.Errorf("crypto rates: %w", err)
	}
	return out, nil
}

// fiatRates loads USD-base rates, keeping only registered codes.
func (s *service) fiatRates(ctx context.Context, out map[string]float64) error {
	type Response struct {
		Rates map[string]float64 `json:"rates"`
	}

	var response Response
	if err := s.getJson(ctx, s.fiatUrl, &response); err != nil {
		return err
	}
	for code, rate := range response.Rates {
		if _, ok := currency.Parse(code); ok {
			out[strings.ToUpper(code)] = rate
		}
	}
	return nil
}

// cryptoRates loads USD prices for every registered crypto asset in
// one request, keyed back from price id to ticker code.
func (s *service) cryptoRates(ctx context.Context, out map[string]float64) error {
	var ids []string
	for _, def := range currency.All() {
		if def.Crypto && def.PriceID != "" {
			ids = append(ids, def.PriceID)
		}
	}

	url := fmt.Sprintf("%v?ids=%v&vs_currencies=usd", s.cryptoUrl, strings.Join(ids, ","))
	response := map[string]map[string]float64{}
	if err := s.getJson(ctx, url, &response); err != nil {
		return err
	}
	for _, def := range currency.All() {
		if !def.Crypto {
			continue
		}
		if prices, ok := response[def.PriceID]; ok {
			out[string(def.Code)] = prices["usd"]
		}
	}
	return nil
}

func (s *service) getJson(ctx context.Context, url string, into interface{}) error {
	request, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("building http request: %w", err)
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %v", httpResponse.StatusCode)
	}

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading json: %w", err)
	}
	if err := json.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}
