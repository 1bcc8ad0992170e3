package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNumberPrefix = "ORD"

// OrderNumberFunc produces a human-readable order number for an order placed at t
type OrderNumberFunc func(t time.Time) string

// NewOrderNumber builds ORD-<yyyymmdd>-<unix millis in base36>-<6 random hex>.
// The numbers sort by creation time and the random tail separates orders placed
// in the same millisecond; the orders table still enforces uniqueness.
func NewOrderNumber(t time.Time) string {
	t = t.UTC()
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]

	return strings.Join([]string{
		orderNumberPrefix,
		t.Format("20060102"),
		strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36)),
		strings.ToUpper(random),
	}, "-")
}
