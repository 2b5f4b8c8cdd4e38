// Package engine implements the device emergency state machine: the legal
// transitions between SAFE, FALL, SOS and AMBULANCE, and the guard rules
// deciding which actor role may trigger which transition.
//
// The engine is pure: Decide never touches the store. Callers apply the
// returned Outcome themselves (status write plus event append), which keeps
// every transition path safe to execute redundantly.
package engine

import (
	"errors"

	"github.com/groblegark/lifeband/internal/model"
)

// Action is a transition trigger requested by some actor.
type Action string

const (
	// ActionFallSignal is the hardware fall sensor firing.
	ActionFallSignal Action = "fall-signal"
	// ActionSOSPress is the hardware SOS button on the device.
	ActionSOSPress Action = "sos-press"
	// ActionManualSOS is the wearer pressing SOS in the app.
	ActionManualSOS Action = "manual-sos"
	// ActionEscalate is an escalation countdown reaching zero.
	ActionEscalate Action = "escalate"
	// ActionCancelFall is the wearer dismissing a detected fall.
	ActionCancelFall Action = "cancel-fall"
	// ActionRequestAmbulance is a caregiver dispatching an ambulance.
	ActionRequestAmbulance Action = "request-ambulance"
	// ActionResolve closes out an emergency.
	ActionResolve Action = "resolve"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks whether the action is a known value.
func (a Action) IsValid() bool {
	switch a {
	case ActionFallSignal, ActionSOSPress, ActionManualSOS, ActionEscalate,
		ActionCancelFall, ActionRequestAmbulance, ActionResolve:
		return true
	}
	return false
}

var (
	// ErrInvalidState means the action is not defined from the device's
	// current status. The caller gets no write.
	ErrInvalidState = errors.New("transition not allowed from current status")

	// ErrPermissionDenied means the acting role may not trigger this
	// transition. The caller gets no write.
	ErrPermissionDenied = errors.New("actor role not permitted for this transition")

	// ErrUnknownAction means the action is not in the transition table at all.
	ErrUnknownAction = errors.New("unknown transition action")
)

// Outcome describes what applying a permitted transition should do.
type Outcome struct {
	// To is the resulting device status.
	To model.DeviceStatus

	// NoOp is true when the device is already in the target status. The
	// status write is skipped but the event (if any) is still appended:
	// each distinct triggering action leaves its own audit record.
	NoOp bool

	// EventType is the audit event this transition must append, or empty
	// for device-origin signals that log nothing.
	EventType model.EventType

	// EventStatus is the event's own lifecycle tag.
	EventStatus model.EventStatus
}

// rule is one row of the transition table.
type rule struct {
	action Action
	// from lists the statuses the action is defined from. Re-requesting a
	// transition whose target status already holds is listed here too, so
	// racing writers stay idempotent on the status field.
	from        []model.DeviceStatus
	roles       []model.ActorRole // nil = any role
	to          model.DeviceStatus
	eventType   model.EventType // empty = no event required
	eventStatus model.EventStatus
}

// table encodes the guard table. Cancel is wearer-only and legal only while
// the status is exactly FALL; caregivers may escalate but never cancel.
var table = []rule{
	{
		action: ActionFallSignal,
		from:   []model.DeviceStatus{model.StatusSafe, model.StatusFall},
		roles:  []model.ActorRole{model.RoleDevice},
		to:     model.StatusFall,
	},
	{
		action: ActionSOSPress,
		from:   []model.DeviceStatus{model.StatusSafe, model.StatusFall, model.StatusSOS},
		roles:  []model.ActorRole{model.RoleDevice},
		to:     model.StatusSOS,
	},
	{
		action:      ActionManualSOS,
		from:        []model.DeviceStatus{model.StatusSafe, model.StatusSOS},
		roles:       []model.ActorRole{model.RoleElderly},
		to:          model.StatusSOS,
		eventType:   model.EventManualSOS,
		eventStatus: model.EventActive,
	},
	{
		// Any observing client's timer may fire; concurrent racers are
		// tolerated, so escalate is also defined from SOS as a no-op.
		action:      ActionEscalate,
		from:        []model.DeviceStatus{model.StatusFall, model.StatusSOS},
		to:          model.StatusSOS,
		eventType:   model.EventFallEscalated,
		eventStatus: model.EventActive,
	},
	{
		action:      ActionCancelFall,
		from:        []model.DeviceStatus{model.StatusFall},
		roles:       []model.ActorRole{model.RoleElderly},
		to:          model.StatusSafe,
		eventType:   model.EventFalseAlarm,
		eventStatus: model.EventResolved,
	},
	{
		action:      ActionRequestAmbulance,
		from:        []model.DeviceStatus{model.StatusFall, model.StatusSOS, model.StatusAmbulance},
		roles:       []model.ActorRole{model.RoleCaregiver},
		to:          model.StatusAmbulance,
		eventType:   model.EventAmbulanceRequested,
		eventStatus: model.EventDispatched,
	},
	{
		action:      ActionResolve,
		from:        []model.DeviceStatus{model.StatusSOS, model.StatusAmbulance},
		roles:       []model.ActorRole{model.RoleElderly, model.RoleCaregiver},
		to:          model.StatusSafe,
		eventType:   model.EventEmergencyResolved,
		eventStatus: model.EventResolved,
	},
}

// Decide evaluates the transition table for the given current status, action
// and acting role. It returns the Outcome to apply, or ErrInvalidState /
// ErrPermissionDenied when a guard rejects the request.
//
// The state guard is checked before the role guard: an action that is not
// defined from the current status is InvalidState regardless of who asked.
func Decide(current model.DeviceStatus, action Action, role model.ActorRole) (Outcome, error) {
	var matched *rule
	for i := range table {
		if table[i].action == action {
			matched = &table[i]
			break
		}
	}
	if matched == nil {
		return Outcome{}, ErrUnknownAction
	}

	fromOK := false
	for _, s := range matched.from {
		if s == current {
			fromOK = true
			break
		}
	}
	if !fromOK {
		return Outcome{}, ErrInvalidState
	}

	if matched.roles != nil {
		roleOK := false
		for _, r := range matched.roles {
			if r == role {
				roleOK = true
				break
			}
		}
		if !roleOK {
			return Outcome{}, ErrPermissionDenied
		}
	}

	return Outcome{
		To:          matched.to,
		NoOp:        current == matched.to,
		EventType:   matched.eventType,
		EventStatus: matched.eventStatus,
	}, nil
}
