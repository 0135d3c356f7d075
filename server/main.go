package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	nhttp "net/http"

	"github.com/go-kit/log"

	calchttp "nlcalc/http"
	"nlcalc/rates"
	"nlcalc/rpc"
	"nlcalc/session"
	"nlcalc/store"
)

func main() {
	var (
		rpcMode    = flag.Bool("rpc", false, "serve JSON-RPC on stdin/stdout instead of the REPL")
		httpAddr   = flag.String("http", "", "serve the JSON HTTP API on this address instead of the REPL")
		storePath  = flag.String("store", "", "bolt database for persisting variables (empty disables)")
		ratesCache = flag.String("rates-cache", "", "cache file for fetched exchange rates (empty disables)")
		offline    = flag.Bool("offline", false, "skip rate fetching and use built-in approximate rates")
	)
	flag.Parse()

	w := log.NewSyncWriter(os.Stderr)
	logger := log.NewLogfmtLogger(w)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var rateService rates.Service
	if !*offline {
		rateService = rates.NewService()
		rateService = rates.NewLoggingService(log.With(logger, "component", "rates_api"), rateService)
		rateService = rates.NewCachingService(rates.DefaultExpiry, *ratesCache, rateService)
		rateService = rates.NewLoggingService(log.With(logger, "component", "rates_cache"), rateService)
	}

	calc := session.New()
	calc = session.NewLoggingService(log.With(logger, "component", "session"), calc)

	var db *store.Store
	if *storePath != "" {
		var err error
		db, err = store.Open(*storePath)
		if err != nil {
			logger.Log("msg", "opening store failed", "path", *storePath, "err", err)
			os.Exit(1)
		}
		defer db.Close()
		vars, err := db.LoadVariables()
		if err != nil {
			logger.Log("msg", "loading variables failed", "err", err)
		}
		for _, nv := range vars {
			calc.SetVariable(nv.Name, nv.Value)
		}
	}

	ctx := context.Background()
	if rateService != nil {
		// Warm the rate graph in the background; the built-in defaults
		// cover the gap until the fetch lands.
		go func() {
			fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			raw, err := rateService.Rates(fetchCtx)
			if err != nil {
				logger.Log("msg", "rate fetch failed, using defaults", "err", err)
				return
			}
			calc.ApplyRawRates(raw)
		}()
	}

	switch {
	case *rpcMode:
		rpc.NewServer(calc, rateService).ServeStdio(ctx)
	case *httpAddr != "":
		if err := nhttp.ListenAndServe(*httpAddr, calchttp.NewServer(calc)); err != nil {
			logger.Log("msg", "http server failed", "err", err)
		}
	default:
		repl(calc)
	}

	if db != nil {
		if err := db.SaveVariables(calc.Variables()); err != nil {
			logger.Log("msg", "saving variables failed", "err", err)
		}
	}
}

// repl evaluates stdin line by line, echoing each result and a final
// set of totals.
func repl(calc session.Service) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		res := calc.Evaluate(scanner.Text())
		if res.Value.IsEmpty() {
			continue
		}
		fmt.Println(res.Value)
	}

	totals := calc.GroupedTotals()
	if len(totals) == 0 {
		return
	}
	fmt.Println("---")
	for _, v := range totals {
		fmt.Println(v)
	}
}
