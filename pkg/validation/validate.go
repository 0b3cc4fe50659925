package validation

import (
	"errors"
	"sync"
)

var (
	ErrBodyRequired = errors.New("message body required")
	ErrBodyTooLong  = errors.New("message body too long")
)

// Rules are the outbound message constraints loaded from config.
type Rules struct {
	RequireBody bool
	// MaxBodyLen caps the trimmed body length in bytes (0 = unlimited).
	MaxBodyLen int
}

var (
	mu    sync.RWMutex
	rules = Rules{RequireBody: true}
)

// SetRules installs the active rule set (called once at startup).
func SetRules(r Rules) {
	mu.Lock()
	defer mu.Unlock()
	rules = r
}

// Body validates an already-trimmed message body against the active rules.
func Body(body string) error {
	mu.RLock()
	r := rules
	mu.RUnlock()
	if r.RequireBody && body == "" {
		return ErrBodyRequired
	}
	if r.MaxBodyLen > 0 && len(body) > r.MaxBodyLen {
		return ErrBodyTooLong
	}
	return nil
}
