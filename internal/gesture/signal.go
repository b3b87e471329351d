// Package gesture turns hand landmarks into scene commands.
package gesture

// Status labels shown to the user. Later checks in Classify overwrite earlier
// ones, so a frame reports the label of the last pose that matched.
const (
	StatusWaiting      = "Waiting for hand"
	StatusHandDetected = "Hand detected"
	StatusRotateLeft   = "Rotate left"
	StatusRotateRight  = "Rotate right"
	StatusPointing     = "Pointing"
	StatusJumping      = "Jumping!"
	StatusOpeningGift  = "Opening gift!"
	StatusLightsSwitch = "Lights switched!"
	StatusCharging     = "Charging..."
)

// Signal is the per-frame output of the classifier.
type Signal struct {
	// RotateDirection is +1 (rotate left), -1 (rotate right) or 0.
	RotateDirection int    `json:"rotate_direction"`
	Jump            bool   `json:"jump"`
	LightsToggle    bool   `json:"lights_toggle"`
	GiftOpen        bool   `json:"gift_open"`
	Status          string `json:"status"`
}

// Neutral returns the signal for a frame without a usable hand.
func Neutral() Signal {
	return Signal{Status: StatusWaiting}
}

// HasTrigger reports whether the signal requests any discrete action.
func (s Signal) HasTrigger() bool {
	return s.Jump || s.LightsToggle || s.GiftOpen
}
