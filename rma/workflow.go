package rma

import (
	"fmt"

	"github.com/innopark/rma-engine/generic"
)

// Declaration workflow:
//
//	DRAFT | REVISION_REQUESTED | APPROVED  --submit-->  SUBMITTED
//	SUBMITTED  --review-->  APPROVED | REVISION_REQUESTED
//
// Editing entries never changes the status. Participants edit only while the
// declaration is theirs to submit; staff edit in any status.

// CanSubmit reports whether a declaration in status s may be (re)submitted.
func (s SubmissionStatus) CanSubmit() bool {
	return s == StatusDraft || s == StatusRevisionRequested || s == StatusApproved
}

// CanReview reports whether a declaration in status s awaits review.
func (s SubmissionStatus) CanReview() bool { return s == StatusSubmitted }

// IsReviewOutcome is true for the two statuses a reviewer may choose.
func (s SubmissionStatus) IsReviewOutcome() bool {
	return s == StatusApproved || s == StatusRevisionRequested
}

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRevisionRequested:
		return true
	}
	return false
}

// CheckSubmit returns generic.ErrInvalidState unless sub may be submitted.
// An empty declaration cannot be submitted.
func CheckSubmit(sub Submission) error {
	if !sub.Status.CanSubmit() {
		return fmt.Errorf("submit from %s: %w", sub.Status, generic.ErrInvalidState)
	}
	if len(sub.Entries) == 0 {
		return &generic.FieldError{Field: "entries", Message: "declaration has no entries"}
	}
	return nil
}

// CheckEdit returns generic.ErrInvalidState when editor may not change sub's
// entries in its current status.
func CheckEdit(sub Submission, editor Role) error {
	if editor == RoleParticipant && !sub.Status.CanSubmit() {
		return fmt.Errorf("edit %s declaration: %w", sub.Status, generic.ErrInvalidState)
	}
	return nil
}

// CheckReview returns an error unless sub awaits review and outcome is a
// valid review decision.
func CheckReview(sub Submission, outcome SubmissionStatus) error {
	if !outcome.IsReviewOutcome() {
		return &generic.FieldError{Field: "action", Message: "must be APPROVED or REVISION_REQUESTED"}
	}
	if !sub.Status.CanReview() {
		return fmt.Errorf("review from %s: %w", sub.Status, generic.ErrInvalidState)
	}
	return nil
}
