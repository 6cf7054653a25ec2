package auth

import "brimasouk/internal/model"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role model.Role
}

func ActorFromUser(user *model.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func (a Actor) IsArtisan() bool {
	return a.Role == model.RoleArtisan
}

// CanManage reports whether the actor owns the resource or is an admin.
func (a Actor) CanManage(ownerID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == ownerID)
}
