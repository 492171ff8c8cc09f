package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/tools/duckduckgo"
	"golang.org/x/time/rate"
)

// ddgLimiter keeps every DuckDuckGo instance in the process at one query per
// second; the HTML endpoint starts refusing bursts quickly.
var ddgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// DuckDuckGo is the no-credential backend. It returns plain text.
type DuckDuckGo struct {
	client  *duckduckgo.Tool
	limiter *rate.Limiter
}

func NewDuckDuckGo(maxResults int) (*DuckDuckGo, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	ddg, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGo{client: ddg, limiter: ddgLimiter}, nil
}

func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (Result, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	res, err := d.client.Call(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("duckduckgo search failed: %w", err)
	}
	return Result{Text: res}, nil
}
