package model

import (
	"time"

	"gorm.io/datatypes"
)

type ProctorEventType string

const (
	EventCopyDetected     ProctorEventType = "copy_detected"
	EventPasteDetected    ProctorEventType = "paste_detected"
	EventTabHidden        ProctorEventType = "tab_hidden"
	EventWindowBlur       ProctorEventType = "window_blur"
	EventMouseLeftWindow  ProctorEventType = "mouse_left_window"
	EventDevtoolsDetected ProctorEventType = "devtools_detected"
	EventDevtoolsShortcut ProctorEventType = "devtools_shortcut"
	EventF12Pressed       ProctorEventType = "f12_pressed"
	EventRightClick       ProctorEventType = "right_click"
)

// strikeWorthy is the closed set of event types that count toward
// automatic termination. Everything else is recorded for audit only.
var strikeWorthy = map[ProctorEventType]bool{
	EventCopyDetected:     true,
	EventPasteDetected:    true,
	EventTabHidden:        true,
	EventWindowBlur:       true,
	EventMouseLeftWindow:  true,
	EventDevtoolsDetected: true,
	EventDevtoolsShortcut: true,
	EventF12Pressed:       true,
	EventRightClick:       true,
}

// IsStrikeWorthy reports whether events of this type count toward the
// attempt's violation budget.
func (t ProctorEventType) IsStrikeWorthy() bool {
	return strikeWorthy[t]
}

// ProctorEvent is an append-only audit record. Events arriving after an
// attempt reached a terminal status are still persisted, they just no
// longer mutate the attempt's violation count.
type ProctorEvent struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	AttemptID    uint             `json:"attempt_id" gorm:"not null;index"`
	Type         ProctorEventType `json:"type" gorm:"not null;index"`
	OccurredAt   time.Time        `json:"occurred_at"`
	Extra        datatypes.JSON   `json:"extra,omitempty" gorm:"type:jsonb"`
	StrikeWorthy bool             `json:"strike_worthy" gorm:"not null"`
	CreatedAt    time.Time        `json:"created_at"`
}
