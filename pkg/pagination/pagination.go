package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds limit/offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns a copy with the limit clamped and negative offsets reset.
func (p Params) Normalize() Params {
	out := Params{Limit: NormalizeLimit(p.Limit), Offset: p.Offset}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// FromQuery reads ?limit= and ?offset=; malformed numbers are rejected.
func FromQuery(values url.Values) (Params, error) {
	var p Params
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("limit must be an integer")
		}
		p.Limit = v
	}
	if raw := strings.TrimSpace(values.Get("offset")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Params{}, fmt.Errorf("offset must be a non-negative integer")
		}
		p.Offset = v
	}
	return p.Normalize(), nil
}
