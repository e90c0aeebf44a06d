package itinerary

import (
	"wanderplan/models"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Op is an operation a requester wants to perform on one itinerary.
type Op int

const (
	OpRead Op = iota
	OpMutate
	OpDelete
	OpAdminister // add or remove collaborators
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpMutate:
		return "mutate"
	case OpDelete:
		return "delete"
	case OpAdminister:
		return "administer"
	default:
		return "unknown"
	}
}

// IsOwner accepts the requester as a bare id, a UserRef or a User.
func IsOwner(requester any, it *models.Itinerary) bool {
	return it != nil && it.Owner.Is(requester)
}

func IsCollaborator(requester any, it *models.Itinerary) bool {
	if it == nil {
		return false
	}
	id := models.NormalizeID(requester)
	if id == "" {
		return false
	}
	return lo.ContainsBy(it.Collaborators, func(c models.UserRef) bool { return c.Is(id) })
}

// Resolve decides whether requester may perform op on it.
//
//	read        owner, collaborator, or anyone when the itinerary is public
//	mutate      owner or collaborator
//	delete      owner
//	administer  owner
func Resolve(requester any, it *models.Itinerary, op Op) bool {
	if it == nil || models.NormalizeID(requester) == "" {
		return false
	}
	owner := IsOwner(requester, it)
	switch op {
	case OpRead:
		return owner || IsCollaborator(requester, it) || it.IsPublic
	case OpMutate:
		return owner || IsCollaborator(requester, it)
	case OpDelete, OpAdminister:
		return owner
	default:
		return false
	}
}

// ListFilter selects the itineraries a user owns or collaborates on. Public ones are not included.
func ListFilter(userID string) bson.M {
	id := models.NormalizeID(userID)
	return bson.M{"$or": []bson.M{
		{"owner": id},
		{"collaborators": id},
	}}
}

// Listable is the in-memory equivalent of ListFilter.
func Listable(userID string, it *models.Itinerary) bool {
	if models.NormalizeID(userID) == "" {
		return false
	}
	return IsOwner(userID, it) || IsCollaborator(userID, it)
}
