// Package review derives reviewer feedback from an artifact's version
// history. The resolver is pure: it walks versions already loaded from
// storage and never touches the database, so the same history always
// produces the same answer.
package review

import (
	"sort"

	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/workflow"
)

// Feedback is the resolved review state of an artifact: the version the
// reviewing role last acted on and the item decisions that act covers.
// Reviewed is false when no version in the history carries any review.
type Feedback struct {
	Reviewed bool
	Version  *models.Version
	Items    []models.ItemDecision
}

// Resolve walks the history from the highest version number down and stops
// at the first review event. A version whose own status is approved or
// rejected is a version-level review; otherwise a version counts as reviewed
// once an item decision landed on it after submission. Decisions copied
// forward by resubmission keep their original timestamps, so a carried
// approval never marks the new version reviewed, and drafts and untouched
// submissions between two review events are skipped. The answer is stable no
// matter how many intermediate versions exist.
func Resolve(history []models.Version) Feedback {
	versions := make([]models.Version, len(history))
	copy(versions, history)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Number > versions[j].Number
	})

	for i := range versions {
		v := &versions[i]

		if v.Status == workflow.VersionApproved || v.Status == workflow.VersionRejected {
			return Feedback{Reviewed: true, Version: v, Items: includedItems(v.Items)}
		}
		if hasFreshReview(v) {
			return Feedback{Reviewed: true, Version: v, Items: reviewedItems(v.Items)}
		}
	}
	return Feedback{}
}

// hasFreshReview reports whether the reviewing role decided any item on this
// version itself, as opposed to a decision inherited from the version it was
// resubmitted from.
func hasFreshReview(v *models.Version) bool {
	if v.SubmittedAt == nil {
		return false
	}
	for _, it := range v.Items {
		if it.ReviewDecision == nil || it.DecidedAt == nil {
			continue
		}
		if !it.DecidedAt.Before(*v.SubmittedAt) {
			return true
		}
	}
	return false
}

// includedItems projects a version-level verdict onto its scoped item set.
func includedItems(items []models.ItemDecision) []models.ItemDecision {
	out := make([]models.ItemDecision, 0, len(items))
	for _, it := range items {
		if it.Include {
			out = append(out, it)
		}
	}
	return out
}

// reviewedItems returns exactly the items bearing an explicit review
// decision, the projection for an item-level review.
func reviewedItems(items []models.ItemDecision) []models.ItemDecision {
	var out []models.ItemDecision
	for _, it := range items {
		if it.ReviewDecision != nil {
			out = append(out, it)
		}
	}
	return out
}

// Counts tallies the reviewed items of a Feedback by decision. Keys are the
// review decision constants; unreviewed items count under "".
func (f Feedback) Counts() map[string]int {
	counts := make(map[string]int)
	for _, it := range f.Items {
		if it.ReviewDecision == nil {
			counts[""]++
			continue
		}
		counts[*it.ReviewDecision]++
	}
	return counts
}
