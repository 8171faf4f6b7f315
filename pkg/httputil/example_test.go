package httputil_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/pkg/config"
	"github.com/wonny/ninthball/pkg/httputil"
	"github.com/wonny/ninthball/pkg/logger"
)

// Example_htmlHistory fetches an annual returns table over HTTP
func Example_htmlHistory() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		HTTP:     config.HTTPConfig{Timeout: 10 * time.Second, RateLimit: 1},
	}
	log := logger.New(cfg, os.Stderr)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log).WithRetry(2, 500*time.Millisecond)

	loader := history.NewHTMLLoader("https://example.com/histretSP.html", "table", client)
	series, err := loader.Load(context.Background())
	if err != nil {
		fmt.Printf("Load failed: %v\n", err)
		return
	}

	fmt.Printf("Loaded %d years (%d-%d)\n", series.Len(), series.MinYear(), series.MaxYear())
}
