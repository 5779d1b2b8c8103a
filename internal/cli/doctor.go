package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/config"
	"github.com/aretw0/foreman/internal/logging"
)

// Check is one line of the doctor report.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Diagnose inspects the environment for cfg without running a query.
func Diagnose(ctx context.Context, cfg *config.Config) []Check {
	checks := []Check{
		{Name: "foreman", OK: true, Detail: strings.TrimSpace(foreman.Version) + " (" + runtime.Version() + ")"},
		{Name: "max steps", OK: true, Detail: fmt.Sprint(cfg.MaxSteps)},
	}

	checks = append(checks, credentialCheck("llm", cfg.LLM.Provider, cfg.LLM.APIKey))
	if cfg.Search.Provider == config.ProviderSearxNG {
		checks = append(checks, Check{
			Name:   "search",
			OK:     cfg.Search.BaseURL != "",
			Detail: "searxng " + orMissing(cfg.Search.BaseURL, "SEARXNG_URL"),
		})
	} else {
		checks = append(checks, credentialCheck("search", cfg.Search.Provider, cfg.Search.APIKey))
	}

	return append(checks, storeCheck(ctx, cfg))
}

func credentialCheck(name, provider, key string) Check {
	if provider == config.ProviderOffline {
		return Check{Name: name, OK: true, Detail: "offline"}
	}
	if key == "" {
		return Check{Name: name, Detail: provider + ": API key not found"}
	}
	return Check{Name: name, OK: true, Detail: fmt.Sprintf("%s: key found (%s...)", provider, prefix(key, 8))}
}

func storeCheck(ctx context.Context, cfg *config.Config) Check {
	c := Check{Name: "store", Detail: cfg.Store.Driver}
	if cfg.Store.Driver == config.DriverNone {
		c.OK = true
		return c
	}

	offline := *cfg
	offline.Offline()
	stack, err := NewStack(&offline, logging.NewNop(), StackOptions{})
	if err != nil {
		c.Detail += ": " + err.Error()
		return c
	}
	defer stack.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ids, err := stack.Engine.List(ctx)
	if err != nil {
		c.Detail += ": " + err.Error()
		return c
	}
	c.OK = true
	c.Detail = fmt.Sprintf("%s (%d runs)", cfg.Store.Driver, len(ids))
	return c
}

// WriteChecks prints the report and reports whether every check passed.
func WriteChecks(w io.Writer, checks []Check) bool {
	ok := true
	fmt.Fprintf(w, "%s\nChecking System Setup\n%s\n\n", strings.Repeat("=", 60), strings.Repeat("=", 60))
	for _, c := range checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
			ok = false
		}
		fmt.Fprintf(w, "%s %-9s %s\n", mark, c.Name, c.Detail)
	}
	if ok {
		fmt.Fprintln(w, "\nSystem is ready!")
	} else {
		fmt.Fprintln(w, "\nPlease fix the issues above, or use --offline.")
	}
	return ok
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orMissing(v, name string) string {
	if v == "" {
		return name + " not set"
	}
	return v
}
