// Package status owns every status inference in the catalog. Nothing else
// derives a product or gamme status from child counts.
package status

import "github.com/adsidev/catalogd/pkg/enums"

// ProductStatusFor derives a product status from its variant tallies. The
// second return is false when no inference is possible (zero variants) and
// the stored status must be left untouched.
func ProductStatusFor(total, completed, errored int64) (enums.EntityStatus, bool) {
	if total == 0 {
		return "", false
	}
	switch {
	case completed == total:
		return enums.EntityStatusCompleted, true
	case errored == total:
		return enums.EntityStatusError, true
	default:
		return enums.EntityStatusPending, true
	}
}

// GammeStatusFor derives a gamme status from its linked products. A gamme
// completes when every linked product holds at least one completed variant.
// With zero completions it only stays in error if it already was. An empty
// gamme stuck in processing is flagged as error; otherwise the stored
// status is kept.
func GammeStatusFor(totalProducts, withCompletedVariant int64, current enums.EntityStatus) (enums.EntityStatus, bool) {
	if totalProducts == 0 {
		if current == enums.EntityStatusProcessing {
			return enums.EntityStatusError, true
		}
		return "", false
	}
	switch {
	case withCompletedVariant == totalProducts:
		return enums.EntityStatusCompleted, true
	case withCompletedVariant == 0 && current == enums.EntityStatusError:
		return enums.EntityStatusError, false
	default:
		return "", false
	}
}
