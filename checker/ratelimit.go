package checker

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minRateFloor is the slowest pace the adaptive limiter backs off to.
	minRateFloor = 1.0

	// maxRateCeiling caps both configured and recovered rates.
	maxRateCeiling = 100.0

	// emaAlpha is the smoothing factor for the RTT moving average.
	// 0.2 means ~20% weight to the new observation.
	emaAlpha = 0.2

	// recoveryFactor raises the rate by 10% per fast response.
	recoveryFactor = 1.1

	// backoffFactor limits how far the rate can drop in a single step.
	backoffFactor = 0.5
)

// AdaptiveLimiter paces URL checks and, when given a target RTT, slows down
// while the server answers slower than the target and recovers when it is
// faster. RTTs are smoothed with an exponential moving average.
type AdaptiveLimiter struct {
	limiter     *rate.Limiter
	targetRTT   time.Duration
	mu          sync.RWMutex
	emaRTT      time.Duration
	currentRate float64
	fixed       bool
}

// NewAdaptiveLimiter creates a limiter starting at rps requests per second.
// A zero targetRTT keeps the rate fixed.
func NewAdaptiveLimiter(rps int, targetRTT time.Duration) *AdaptiveLimiter {
	clamped := clampRate(float64(rps))
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(rate.Limit(clamped), burstFor(clamped)),
		targetRTT:   targetRTT,
		emaRTT:      targetRTT,
		currentRate: clamped,
		fixed:       targetRTT <= 0,
	}
}

// newLimiter returns nil when cfg disables pacing.
func newLimiter(cfg Config) *AdaptiveLimiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	return NewAdaptiveLimiter(cfg.RateLimit, cfg.TargetRTT)
}

// Wait blocks until the next request may start or ctx is done.
// It is safe for concurrent use.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// ObserveRTT records a response time and adjusts the rate.
func (a *AdaptiveLimiter) ObserveRTT(rtt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fixed || rtt <= 0 {
		return
	}

	a.emaRTT = time.Duration(emaAlpha*float64(rtt) + (1-emaAlpha)*float64(a.emaRTT))

	// ratio < 1: server slower than target.
	ratio := float64(a.targetRTT) / float64(a.emaRTT)

	var next float64
	if ratio < 1 {
		next = math.Max(a.currentRate*ratio, a.currentRate*backoffFactor)
	} else {
		next = a.currentRate * recoveryFactor
	}
	next = clampRate(next)

	if math.Abs(next-a.currentRate) > 0.1 {
		a.currentRate = next
		a.limiter.SetLimit(rate.Limit(next))
		a.limiter.SetBurst(burstFor(next))
	}
}

// SetRate overrides the current rate and stops adaptation.
func (a *AdaptiveLimiter) SetRate(rps int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	clamped := clampRate(float64(rps))
	a.currentRate = clamped
	a.fixed = true
	a.limiter.SetLimit(rate.Limit(clamped))
	a.limiter.SetBurst(burstFor(clamped))
}

// CurrentRate returns the current rate in requests per second.
func (a *AdaptiveLimiter) CurrentRate() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int(math.Round(a.currentRate))
}

// CurrentEMA returns the smoothed RTT.
func (a *AdaptiveLimiter) CurrentEMA() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.emaRTT
}

func clampRate(rps float64) float64 {
	return math.Min(math.Max(rps, minRateFloor), maxRateCeiling)
}

func burstFor(rps float64) int {
	return int(math.Ceil(rps))
}
