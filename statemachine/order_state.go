package statemachine

import (
	"strings"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/models"
)

// Transition describes one step of the kitchen workflow.
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// workflow is the forward path staff normally follow. Jumps between any two
// statuses (including back to Pending, or to the current status) are also
// accepted; only membership is enforced.
var workflow = []Transition{
	{From: models.StatusPending, To: models.StatusPreparing, Actor: "admin"},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: "admin"},
	{From: models.StatusReady, To: models.StatusComplete, Actor: "admin"},
}

// Build a lookup for the forward path
var forward = func() map[models.OrderStatus]models.OrderStatus {
	m := make(map[models.OrderStatus]models.OrderStatus, len(workflow))
	for _, t := range workflow {
		m[t.From] = t.To
	}
	return m
}()

// Allowed returns every status an order may be set to.
func Allowed() []models.OrderStatus {
	out := make([]models.OrderStatus, len(models.OrderStatuses))
	copy(out, models.OrderStatuses)
	return out
}

// AllowedStrings is Allowed as plain strings, for error payloads.
func AllowedStrings() []string {
	out := make([]string, 0, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		out = append(out, string(s))
	}
	return out
}

// Next returns the next status on the forward path, if any.
func Next(status models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := forward[status]
	return next, ok
}

// ValidTransitionsFrom returns all statuses reachable from status.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	if !status.IsValid() {
		return nil
	}
	return Allowed()
}

// CanTransition validates a requested status change.
func CanTransition(from, to models.OrderStatus) error {
	if !to.IsValid() {
		return apperrors.Validation("Invalid status value").
			WithDetails(map[string]any{"allowed": AllowedStrings()})
	}
	if from != "" && !from.IsValid() {
		return apperrors.New(apperrors.CodeInternal,
			"order is in unknown status "+string(from)+"; expected one of "+strings.Join(AllowedStrings(), ", "))
	}
	return nil
}

// IsTerminal reports whether status ends the forward path.
func IsTerminal(status models.OrderStatus) bool {
	return status == models.StatusComplete
}

// EstimatedMinutes is the rough wait shown on the tracking page.
func EstimatedMinutes(status models.OrderStatus) int {
	switch status {
	case models.StatusPending:
		return 30
	case models.StatusPreparing:
		return 20
	default:
		return 0
	}
}

// StatusInfo documents one status for the workflow endpoint.
type StatusInfo struct {
	Status           models.OrderStatus   `json:"status"`
	Next             models.OrderStatus   `json:"next,omitempty"`
	Terminal         bool                 `json:"terminal"`
	EstimatedMinutes int                  `json:"estimatedMinutes"`
	AllowedTargets   []models.OrderStatus `json:"allowedTargets"`
}

// Describe lists every status in workflow order.
func Describe() []StatusInfo {
	out := make([]StatusInfo, 0, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		next, _ := Next(status)
		out = append(out, StatusInfo{
			Status:           status,
			Next:             next,
			Terminal:         IsTerminal(status),
			EstimatedMinutes: EstimatedMinutes(status),
			AllowedTargets:   ValidTransitionsFrom(status),
		})
	}
	return out
}

// TerminalStatuses returns the statuses that end the forward path.
func TerminalStatuses() []models.OrderStatus {
	var out []models.OrderStatus
	for _, status := range models.OrderStatuses {
		if IsTerminal(status) {
			out = append(out, status)
		}
	}
	return out
}

// GetAllTransitions returns the forward workflow for documentation.
func GetAllTransitions() []Transition {
	out := make([]Transition, len(workflow))
	copy(out, workflow)
	return out
}
