package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

// DefaultRefPrefix is the program code leading every reference number.
const DefaultRefPrefix = "HUDT"

// refDigits is the zero-padded width of the sequence suffix.
const refDigits = 3

// Allocator derives the next reference number for the current year from the
// highest one already stored. It does not reserve numbers: two concurrent
// callers can receive the same value, and the unique index rejects the loser.
type Allocator struct {
	repo   Repository
	prefix string
	logger *logging.Logger
	now    func() time.Time
	intn   func(n int) int
}

// NewAllocator creates an allocator. An empty prefix selects DefaultRefPrefix.
func NewAllocator(repo Repository, prefix string, logger *logging.Logger) *Allocator {
	if prefix == "" {
		prefix = DefaultRefPrefix
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Allocator{
		repo:   repo,
		prefix: strings.ToUpper(prefix),
		logger: logger,
		now:    time.Now,
		intn:   rand.IntN,
	}
}

// yearPrefix returns "<PREFIX>-<year>-".
func (a *Allocator) yearPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", a.prefix, year)
}

// Next returns the next reference number for the current year,
// for example HUDT-2026-001. It never fails: when the lookup fails or the
// stored suffix cannot be parsed it falls back to a random suffix.
func (a *Allocator) Next(ctx context.Context) string {
	prefix := a.yearPrefix(a.now().Year())

	latest, err := a.repo.LatestRefNumber(ctx, prefix)
	if err != nil {
		a.logger.Warn(ctx, "reference lookup failed, using random suffix", zap.Error(err))
		return a.random(prefix)
	}
	if latest == "" {
		return formatRef(prefix, 1)
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil || seq < 0 {
		a.logger.Warn(ctx, "unparsable reference suffix, using random suffix",
			zap.String("latest", latest))
		return a.random(prefix)
	}
	return formatRef(prefix, seq+1)
}

func (a *Allocator) random(prefix string) string {
	return formatRef(prefix, 1+a.intn(999))
}

func formatRef(prefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, refDigits, seq)
}

// IsRefNumber reports whether s has the shape of a reference number for prefix.
func IsRefNumber(prefix, s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || !strings.EqualFold(parts[0], prefix) {
		return false
	}
	if len(parts[1]) != 4 || len(parts[2]) < refDigits {
		return false
	}
	for _, p := range parts[1:] {
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
