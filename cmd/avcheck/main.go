// Command avcheck validates an Alpha Vantage API key and prints one quote.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"avquotes-service/internal/config"
	"avquotes-service/internal/domain"
	"avquotes-service/internal/infrastructure/alphavantage"
	infraconfig "avquotes-service/internal/infrastructure/config"
	"avquotes-service/internal/infrastructure/httpx"
	"avquotes-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg := config.Load()

	key := flag.String("key", os.Getenv("AV_API_KEY"), "Alpha Vantage API key")
	symbol := flag.String("symbol", "IBM", "symbol to quote after validation")
	flag.Parse()

	client, err := alphavantage.NewClient(*key,
		alphavantage.WithBaseURL(cfg.AVBaseURL),
		alphavantage.WithHTTPClient(httpx.New(cfg.RequestTimeout, infraconfig.UserAgent)),
	)
	if err != nil {
		log.Fatal("avcheck", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout)
	defer cancel()

	ok, err := client.ValidateKey(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "key check failed: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "invalid API key")
		os.Exit(2)
	}
	fmt.Println("API key OK")

	q, err := client.GlobalQuote(ctx, domain.NormalizeSymbol(*symbol))
	if err != nil {
		fmt.Fprintf(os.Stderr, "quote %s: %v\n", *symbol, err)
		os.Exit(1)
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-24s %s\n", k, q[k])
	}
}
