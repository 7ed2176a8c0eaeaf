package services

import "errors"

// Domain errors recovered at the handler boundary. Each maps to a distinct
// user-visible condition; none of them leaves partial state behind.
var (
	// ErrForbidden means the actor lacks the capability the operation needs.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrOwnerOnlyField is reported when a non-owner touches the visibility
	// field. Kept separate from ErrForbidden so the UI can explain the
	// owner-only rule.
	ErrOwnerOnlyField = errors.New("only the project owner can change visibility")

	// ErrInvalidField means the field is not on the editable allow-list.
	ErrInvalidField = errors.New("field cannot be changed through the governance workflow")

	// ErrAlreadyReviewed means the change request left the pending state
	// before this review landed.
	ErrAlreadyReviewed = errors.New("change request has already been reviewed")

	// ErrAlreadyMember guards re-invitations of an existing member.
	ErrAlreadyMember = errors.New("user is already a member of this project")

	// ErrCannotRemoveOwner: ownership cannot be stripped via member removal.
	ErrCannotRemoveOwner = errors.New("cannot remove the project owner")
)
