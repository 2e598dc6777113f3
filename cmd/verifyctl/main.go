// Command verifyctl is a small client for the docverify API.
//
//	verifyctl [-url URL] [-key KEY] siret|siren|tva|iban <value>
//	verifyctl [-url URL] [-key KEY] batch <type:value>...
//	verifyctl [-url URL] [-key KEY] stats
//	verifyctl vat-key <siren>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"docverify/pkg/identifier"
)

const (
	defaultURL = "http://localhost:8080"
	defaultKey = "demo_key_123"
)

var errUsage = errors.New("usage: verifyctl [-url URL] [-key KEY] siret|siren|tva|iban|batch|stats|vat-key <value...>")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("verifyctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("url", envOr(getenv, "DOCVERIFY_URL", defaultURL), "API base URL")
	apiKey := fs.String("key", envOr(getenv, "DOCVERIFY_API_KEY", defaultKey), "API key")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	r := newRenderer(stdout)
	c := newClient(*baseURL, *apiKey)
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	var err error
	switch cmd {
	case "siret", "siren", "tva", "iban":
		if len(rest) != 1 {
			err = errUsage
			break
		}
		var env *envelope
		if env, err = c.verify(ctx, cmd, rest[0]); err == nil {
			r.envelope(strings.ToUpper(cmd)+" "+rest[0], env)
		}
	case "batch":
		var items []batchItem
		if items, err = parseBatchItems(rest); err != nil {
			break
		}
		var resp *batchResponse
		if resp, err = c.batch(ctx, items); err == nil {
			r.batch(resp)
		}
	case "stats":
		var stats *statsResponse
		if stats, err = c.stats(ctx); err == nil {
			r.stats(stats)
		}
	case "vat-key":
		if len(rest) != 1 {
			err = errUsage
			break
		}
		var siren identifier.Siren
		if siren, err = identifier.ValidateSiren(rest[0]); err == nil {
			r.line("FR" + identifier.FrenchVATKey(siren) + string(siren))
		}
	default:
		err = errUsage
	}

	if err != nil {
		r.failure(err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// parseBatchItems reads "type:value" arguments.
func parseBatchItems(args []string) ([]batchItem, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	items := make([]batchItem, 0, len(args))
	for _, arg := range args {
		kind, value, ok := strings.Cut(arg, ":")
		if !ok || kind == "" || value == "" {
			return nil, fmt.Errorf("batch item %q: want type:value", arg)
		}
		items = append(items, batchItem{Type: kind, Value: value, IncludeEnrichment: true})
	}
	return items, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
