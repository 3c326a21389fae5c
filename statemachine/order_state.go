package statemachine

import (
	"errors"
	"fmt"

	"food-ordering-api/models"
)

// ErrCannotEditStatus is returned when the caller's role may not move an
// order to the requested status.
var ErrCannotEditStatus = errors.New("CannotEditStatus")

// Transition describes which statuses a role may set
type Transition struct {
	Actor   models.UserRole      `json:"actor"`
	Targets []models.OrderStatus `json:"targets"`
}

// validTransitions is the authoritative status rule table. The current status
// is not consulted: any target in the actor's set is accepted.
var validTransitions = []Transition{
	// Restaurant owner drives preparation
	{Actor: models.RoleOwner, Targets: []models.OrderStatus{models.StatusCooking, models.StatusCooked}},
	// Driver drives delivery
	{Actor: models.RoleDelivery, Targets: []models.OrderStatus{models.StatusPickedUp, models.StatusDelivered}},
	// Clients never edit status
	{Actor: models.RoleClient},
}

type transitionKey struct {
	Actor  models.UserRole
	Target models.OrderStatus
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		for _, to := range t.Targets {
			m[transitionKey{t.Actor, to}] = true
		}
	}
	return m
}()

// AllowedTargets returns the statuses actor may set
func AllowedTargets(actor models.UserRole) []models.OrderStatus {
	for _, t := range validTransitions {
		if t.Actor == actor {
			return append([]models.OrderStatus(nil), t.Targets...)
		}
	}
	return nil
}

// CanTransition checks whether actor may set the order status to `to`.
// The returned error wraps ErrCannotEditStatus.
func CanTransition(actor models.UserRole, to models.OrderStatus) error {
	if transitionMap[transitionKey{actor, to}] {
		return nil
	}
	return fmt.Errorf("%w: %s may not set status %s", ErrCannotEditStatus, actor, to)
}

// GetAllTransitions returns the full rule table for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
