package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := Config{}.normalize()
	if cfg.RetryMaxAttempts <= 0 || cfg.RetryInitialBackoff <= 0 || cfg.RetryMultiplier < 1.0 {
		t.Errorf("retry defaults not filled: %+v", cfg)
	}
	if cfg.RetryMaxBackoff < cfg.RetryInitialBackoff {
		t.Errorf("max backoff %v below initial %v", cfg.RetryMaxBackoff, cfg.RetryInitialBackoff)
	}
	if cfg.BreakerMinRequests == 0 || cfg.BreakerFailureRatio <= 0 || cfg.BreakerHalfOpenMaxCalls == 0 {
		t.Errorf("breaker defaults not filled: %+v", cfg)
	}
}

func TestNormalizeKeepsSetValues(t *testing.T) {
	in := QueueProfile()
	out := in.normalize()
	if out != in {
		t.Errorf("normalize changed a fully specified config: %+v -> %+v", in, out)
	}
}

func TestProfilesDifferByDependency(t *testing.T) {
	queue, vector := QueueProfile(), VectorProfile()
	if queue.RetryMaxBackoff >= vector.RetryMaxBackoff {
		t.Errorf("queue backoff ceiling %v should sit below vector %v",
			queue.RetryMaxBackoff, vector.RetryMaxBackoff)
	}
	if queue.BreakerOpenTimeout >= vector.BreakerOpenTimeout {
		t.Errorf("queue breaker reopens in %v, vector in %v; queue should recover sooner",
			queue.BreakerOpenTimeout, vector.BreakerOpenTimeout)
	}
	if vector.RetryInitialBackoff < 100*time.Millisecond {
		t.Errorf("vector initial backoff %v too aggressive for an HTTP dependency", vector.RetryInitialBackoff)
	}
}
