package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jusondac/factory-app/internal/repository"
)

// Clock abstracts wall-clock time so date-scoped identifier generation and
// the auto-cancel sweep are deterministic under test.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewClock() Clock { return realClock{} }

// today truncates the clock to midnight in local time.
func today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

const (
	unitIDPrefix    = "UNIT"
	prepareIDPrefix = "PRP"
	produceIDPrefix = "PROD"
	packageIDPrefix = "PACK"

	// Identifier generation is count-then-format and therefore racy between
	// concurrent creators sharing a date prefix; the unique index is the
	// arbiter and callers retry this many times on a duplicate-key error.
	idGenAttempts = 3
)

// IDGenerator produces the human-readable codes persisted on every entity:
// date-scoped sequential IDs (UNIT/PRP/PROD/PACK-YYYYMMDD-N), positional
// batch codes, and random product codes / machine serials.
type IDGenerator struct {
	batches  repository.UnitBatchRepository
	prepares repository.PrepareRepository
	produces repository.ProduceRepository
	packages repository.PackageRepository
}

func NewIDGenerator(
	batches repository.UnitBatchRepository,
	prepares repository.PrepareRepository,
	produces repository.ProduceRepository,
	packages repository.PackageRepository,
) *IDGenerator {
	return &IDGenerator{batches: batches, prepares: prepares, produces: produces, packages: packages}
}

func datePrefix(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, date.Format("20060102"))
}

// NextUnitID returns UNIT-YYYYMMDD-N where N is one past the count of unit
// IDs sharing the date prefix.
func (g *IDGenerator) NextUnitID(ctx context.Context, date time.Time) (string, error) {
	p := datePrefix(unitIDPrefix, date)
	count, err := g.batches.CountUnitIDsWithPrefix(ctx, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", p, count+1), nil
}

func (g *IDGenerator) NextPrepareID(ctx context.Context, date time.Time) (string, error) {
	p := datePrefix(prepareIDPrefix, date)
	count, err := g.prepares.CountIDsWithPrefix(ctx, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", p, count+1), nil
}

func (g *IDGenerator) NextProduceID(ctx context.Context, date time.Time) (string, error) {
	p := datePrefix(produceIDPrefix, date)
	count, err := g.produces.CountIDsWithPrefix(ctx, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", p, count+1), nil
}

func (g *IDGenerator) NextPackageID(ctx context.Context, date time.Time) (string, error) {
	p := datePrefix(packageIDPrefix, date)
	count, err := g.packages.CountIDsWithPrefix(ctx, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", p, count+1), nil
}

// NextBatchCode builds PRODUCTCODE-YYYYMMDD-SHIFTLETTER-LNN-SEQ3. The line
// segment starts at L00 and is rewritten once a machine with a line is
// assigned to the batch's produce.
func (g *IDGenerator) NextBatchCode(ctx context.Context, productCode string, date time.Time, shiftLetter string) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", productCode, date.Format("20060102"))
	count, err := g.batches.CountBatchCodesWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s-L00-%03d", prefix, shiftLetter, count+1), nil
}

// RewriteBatchCodeLine replaces the line segment of an existing batch code
// in place. Batch codes have exactly 5 dash-delimited segments; anything
// else is left untouched.
func RewriteBatchCodeLine(batchCode string, line int) (string, bool) {
	parts := strings.Split(batchCode, "-")
	if len(parts) != 5 {
		return batchCode, false
	}
	parts[3] = fmt.Sprintf("L%02d", line)
	return strings.Join(parts, "-"), true
}

// NewProductCode returns "PRD" plus 6 uppercase hex chars.
func NewProductCode() (string, error) {
	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}
	return "PRD" + suffix, nil
}

// NewSerialNumber returns 10 uppercase hex chars.
func NewSerialNumber() (string, error) {
	return randomHex(5)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
