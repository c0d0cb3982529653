package domain

// ReviewConfidenceThreshold is the confidence score (0-100) below which a
// draft document is flagged for human review. Kept in one place so the
// registry and the tracker agree on the predicate.
const ReviewConfidenceThreshold = 70.0

// RequiresHumanReview reports whether a document in the given state needs an
// explicit human approve/reject before it is final. The service normally
// sends this flag itself; this predicate is the single local derivation used
// when it does not.
func RequiresHumanReview(confidence float64, status DocumentStatus) bool {
	return status == StatusDraft && confidence < ReviewConfidenceThreshold
}
