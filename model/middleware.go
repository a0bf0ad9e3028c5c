package model

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Middleware decorates a Model, e.g. with rate limiting or metrics.
type Middleware func(next Model) Model

// Chain applies middlewares so the first one listed is the outermost.
func Chain(m Model, mws ...Middleware) Model {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			m = mws[i](m)
		}
	}
	return m
}

// GenerateFunc adapts a function to the Generate half of Model.
type GenerateFunc func(ctx context.Context, req Request) (<-chan Response, <-chan error)

type funcModel struct {
	generate GenerateFunc
	info     Info
}

// WrapFunc builds a Model reporting info and delegating Generate to fn.
func WrapFunc(info Info, fn GenerateFunc) Model {
	return &funcModel{generate: fn, info: info}
}

func (f *funcModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	return f.generate(ctx, req)
}

func (f *funcModel) Info() Info { return f.info }

// RateLimit paces Generate calls with a token bucket. Free-tier Gemini keys
// allow only a handful of requests per minute, and the five-step program
// issues several calls per step.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next Model) Model {
		if limiter == nil {
			return next
		}
		return WrapFunc(next.Info(), func(ctx context.Context, req Request) (<-chan Response, <-chan error) {
			if err := limiter.Wait(ctx); err != nil {
				return Finish(nil, fmt.Errorf("rate limit wait: %w", err))
			}
			return next.Generate(ctx, req)
		})
	}
}

// PerMinute builds a limiter allowing n requests per minute with a burst of 1.
// n <= 0 returns nil (unlimited).
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}
