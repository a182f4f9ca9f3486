// Package permissions decides which actions a user may take on owned content.
//
// Every predicate fails closed: a nil user, or a user or owner without an id,
// never gets an action.
package permissions

import "github.com/sharada257/Feedback-Management/internal/domain/entities"

// Actions is the set of affordances exposed for one resource.
type Actions int

const (
	// ActionsNone exposes nothing
	ActionsNone Actions = iota
	// ActionsDeleteOnly exposes delete (moderators on others' content)
	ActionsDeleteOnly
	// ActionsEditDelete exposes edit and delete (owners)
	ActionsEditDelete
)

func (a Actions) String() string {
	switch a {
	case ActionsDeleteOnly:
		return "delete"
	case ActionsEditDelete:
		return "edit+delete"
	default:
		return "none"
	}
}

// IsOwner reports whether user owns a resource owned by ownerID.
// Both ids are normalized strings; see entities.OwnerRef.
func IsOwner(user *entities.CurrentUser, ownerID string) bool {
	if user == nil || user.ID == "" || ownerID == "" {
		return false
	}
	return user.ID == ownerID
}

// CanModerate reports whether user holds a moderating role.
func CanModerate(user *entities.CurrentUser) bool {
	if user == nil {
		return false
	}
	switch entities.ParseRole(string(user.Role)) {
	case entities.RoleAdmin, entities.RoleModerator:
		return true
	}
	return false
}

// CanEdit is owner-only; moderators cannot edit others' content.
func CanEdit(user *entities.CurrentUser, ownerID string) bool {
	return IsOwner(user, ownerID)
}

// CanDelete allows owners and moderators.
func CanDelete(user *entities.CurrentUser, ownerID string) bool {
	return IsOwner(user, ownerID) || CanModerate(user)
}

// Evaluate collapses the predicates into the single exposed action set.
func Evaluate(user *entities.CurrentUser, ownerID string) Actions {
	switch {
	case CanEdit(user, ownerID):
		return ActionsEditDelete
	case CanDelete(user, ownerID):
		return ActionsDeleteOnly
	default:
		return ActionsNone
	}
}

// ForFeedback evaluates the actions on a feedback item.
func ForFeedback(user *entities.CurrentUser, f *entities.Feedback) Actions {
	if f == nil {
		return ActionsNone
	}
	return Evaluate(user, f.User.ID)
}

// ForComment evaluates the actions on a comment.
func ForComment(user *entities.CurrentUser, c *entities.Comment) Actions {
	if c == nil {
		return ActionsNone
	}
	return Evaluate(user, c.User.ID)
}
