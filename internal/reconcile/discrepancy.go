package reconcile

import (
	"fmt"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// evaluateDiscrepancy compares the expected net payment against the
// matched withdrawal. Differences inside the tolerance are rounding
// noise and produce no discrepancy.
func evaluateDiscrepancy(expected, actual, tolerance int64) *model.Discrepancy {
	diff := actual - expected
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	if abs <= tolerance {
		return nil
	}

	desc := fmt.Sprintf("expected payment of %d but bank shows %d (difference %+d)", expected, actual, diff)
	return &model.Discrepancy{
		Reason:         model.DiscrepancyAmountMismatch,
		Description:    desc,
		ExpectedAmount: expected,
		ActualAmount:   actual,
		Difference:     diff,
	}
}

// notFoundDiscrepancy reports that no plausible payment exists.
func notFoundDiscrepancy(expected int64) *model.Discrepancy {
	return &model.Discrepancy{
		Reason:         model.DiscrepancyPaymentNotFound,
		Description:    fmt.Sprintf("no bank withdrawal matching the expected payment of %d", expected),
		ExpectedAmount: expected,
		ActualAmount:   0,
		Difference:     -expected,
	}
}
