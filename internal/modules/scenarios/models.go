// Package scenarios persists backtest requests for shareable permalinks.
// A scenario is addressed by the hash of its canonical request, so saving the
// same request twice yields the same permalink.
package scenarios

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hindsightlab/hindsight/internal/modules/backtest"
)

// ErrNotFound marks a lookup for a hash that was never saved.
var ErrNotFound = errors.New("scenario not found")

// Scenario is a saved backtest request with its permalink identity.
type Scenario struct {
	ID        string           `json:"id"`
	Hash      string           `json:"hash"`
	Request   backtest.Request `json:"request"`
	CreatedAt time.Time        `json:"created_at"`
}

// HashRequest computes the canonical permalink hash for a request. The
// request must already be normalized; two requests differing only in ticker
// case or omitted defaults hash identically.
func HashRequest(req backtest.Request) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		req.Ticker,
		strconv.FormatFloat(req.Amount, 'g', -1, 64),
		req.StartDate,
		req.EndDate,
		req.Cadence,
		req.FeeBps,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
