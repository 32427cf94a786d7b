package service

import (
	"time"

	"github.com/prateek-combat/critest/internal/model"
)

type DenyReason string

const (
	DenyDeactivated       DenyReason = "deactivated"
	DenyExpired           DenyReason = "expired"
	DenyUsageLimitReached DenyReason = "usage limit reached"
	DenyNotYetStarted     DenyReason = "not yet started"
	DenyEnded             DenyReason = "ended"
	DenySlotFull          DenyReason = "slot full"
)

// AccessDecision is the typed outcome of a gate check. WindowStart/End are
// populated for time-window denials so the UI can show the actual window.
type AccessDecision struct {
	Allowed     bool
	Reason      DenyReason
	WindowStart *time.Time
	WindowEnd   *time.Time
}

func allow() AccessDecision {
	return AccessDecision{Allowed: true}
}

func deny(reason DenyReason) AccessDecision {
	return AccessDecision{Reason: reason}
}

// AccessGateService decides whether a candidate may start an attempt. All
// checks are pure reads; usage and seat counters are consumed atomically at
// attempt creation, not here.
type AccessGateService interface {
	CheckLink(link *model.PublicLink) AccessDecision
	CheckInvitation(invitation *model.Invitation) AccessDecision
}

type accessGateService struct {
	clock    Clock
	resolver TimezoneResolver
}

func NewAccessGateService(clock Clock, resolver TimezoneResolver) AccessGateService {
	return &accessGateService{clock: clock, resolver: resolver}
}

// CheckLink runs the ordered gate checks, short-circuiting on the first
// failure: active flag, expiry, usage cap, then the time-slot window and
// seat cap.
func (s *accessGateService) CheckLink(link *model.PublicLink) AccessDecision {
	now := s.clock.Now()

	if !link.IsActive {
		return deny(DenyDeactivated)
	}
	if link.ExpiresAt != nil && now.After(*link.ExpiresAt) {
		return deny(DenyExpired)
	}
	if link.MaxUses != nil && link.UsedCount >= *link.MaxUses {
		return deny(DenyUsageLimitReached)
	}
	if link.TimeSlot != nil {
		return s.checkTimeSlot(link.TimeSlot, now)
	}
	return allow()
}

func (s *accessGateService) checkTimeSlot(slot *model.TimeSlot, now time.Time) AccessDecision {
	if !slot.IsActive {
		return deny(DenyDeactivated)
	}

	start := s.resolver.Interpret(slot.StartDateTime, slot.Timezone)
	end := s.resolver.Interpret(slot.EndDateTime, slot.Timezone)

	// The window is inclusive on both ends.
	if now.Before(start) {
		d := deny(DenyNotYetStarted)
		d.WindowStart, d.WindowEnd = &start, &end
		return d
	}
	if now.After(end) {
		d := deny(DenyEnded)
		d.WindowStart, d.WindowEnd = &start, &end
		return d
	}
	if slot.MaxParticipants != nil && slot.CurrentParticipants >= *slot.MaxParticipants {
		return deny(DenySlotFull)
	}
	return allow()
}

func (s *accessGateService) CheckInvitation(invitation *model.Invitation) AccessDecision {
	now := s.clock.Now()

	if !invitation.IsActive {
		return deny(DenyDeactivated)
	}
	if invitation.ExpiresAt != nil && now.After(*invitation.ExpiresAt) {
		return deny(DenyExpired)
	}
	return allow()
}
