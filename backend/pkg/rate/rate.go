// Package `rate` provides an adaptive rate limiter.  The limit starts at a
// multiple of the minimum rate.  `Regulate()` periodically compares the rate
// of successful operations with the rate of operations that the remote side
// rejected as excess, and lowers or raises the limit accordingly.
//
// The MASS gateway paces `moo` commands with it: task rejections and
// unavailable storage count as excess.
package rate

import (
	"context"
	"time"

	"github.com/paulbellamy/ratecounter"
	"golang.org/x/time/rate"
)

const (
	StartRateFactor   = 3
	IncreaseSteps     = 100
	DecreaseFactor    = 0.75
	IncreaseThreshold = 0.6
	DecreaseThreshold = 0.1
	RegulateEveryNTau = 3
)

type Limit = rate.Limit

type Config struct {
	Name    string
	MinRate Limit
	MaxRate Limit
	Burst   int
	Tau     time.Duration
}

type Logger interface {
	Infow(msg string, kv ...interface{})
}

type Limiter struct {
	lg   Logger
	name string

	L   *rate.Limiter
	min Limit
	max Limit

	tau          time.Duration
	successCount *ratecounter.RateCounter
	excessCount  *ratecounter.RateCounter
}

func NewLimiter(lg Logger, cfg Config) *Limiter {
	startRate := StartRateFactor * cfg.MinRate
	if startRate > cfg.MaxRate {
		startRate = cfg.MaxRate
	}
	return &Limiter{
		lg:           lg,
		name:         cfg.Name,
		L:            rate.NewLimiter(startRate, cfg.Burst),
		min:          cfg.MinRate,
		max:          cfg.MaxRate,
		tau:          cfg.Tau,
		successCount: ratecounter.NewRateCounter(cfg.Tau),
		excessCount:  ratecounter.NewRateCounter(cfg.Tau),
	}
}

// `Wait()` blocks until the limiter permits one operation or `ctx` is done.
func (lim *Limiter) Wait(ctx context.Context) error {
	return lim.L.Wait(ctx)
}

// `Regulate()` adjusts the limit every `RegulateEveryNTau * Tau` until `ctx`
// is done.  Run it in a goroutine.
func (lim *Limiter) Regulate(ctx context.Context) error {
	quit := make(chan struct{})
	go func() {
		ticker := time.NewTicker(RegulateEveryNTau * lim.tau)
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				close(quit)
				return
			case <-ticker.C:
				lim.RegulateOnce()
			}
		}
	}()

	<-ctx.Done()
	<-quit
	return ctx.Err()
}

// `RegulateOnce()` performs a single adjustment step.
func (lim *Limiter) RegulateOnce() {
	suc := lim.SuccessRate()
	ex := lim.ExcessRate()
	if ex > DecreaseThreshold*suc {
		r := lim.L.Limit()
		r *= DecreaseFactor
		if r < lim.min {
			r = lim.min
		}
		lim.L.SetLimit(r)
		lim.lg.Infow(
			"Decreased rate limit.",
			"rateLimiter", lim.name,
			"successRate", suc,
			"excessRate", ex,
			"newLimit", r,
		)
	} else if suc > float64(lim.L.Limit())*IncreaseThreshold {
		r := lim.L.Limit()
		r += (lim.max - lim.min) / IncreaseSteps
		if r > lim.max {
			r = lim.max
		}
		lim.L.SetLimit(r)
		lim.lg.Infow(
			"Increased rate limit.",
			"rateLimiter", lim.name,
			"successRate", suc,
			"excessRate", ex,
			"newLimit", r,
		)
	}
}

func (lim *Limiter) Limit() Limit {
	return lim.L.Limit()
}

func (lim *Limiter) Success() {
	lim.successCount.Incr(1)
}

func (lim *Limiter) Excess() {
	lim.excessCount.Incr(1)
}

func (lim *Limiter) SuccessRate() float64 {
	secs := float64(lim.tau) / float64(time.Second)
	return float64(lim.successCount.Rate()) / secs
}

func (lim *Limiter) ExcessRate() float64 {
	secs := float64(lim.tau) / float64(time.Second)
	return float64(lim.excessCount.Rate()) / secs
}
