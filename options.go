package conflictkit

import "time"

// Polling interval clamp band. Intervals outside the band are clamped, not
// rejected, so a misconfigured caller still gets sane polling.
const (
	MinCheckInterval = 5 * time.Second
	MaxCheckInterval = 300 * time.Second
)

// NotificationPosition tells a consuming UI where to surface a conflict.
// The core never renders anything; it only carries the value through.
type NotificationPosition string

const (
	PositionTop    NotificationPosition = "top"
	PositionBottom NotificationPosition = "bottom"
	PositionInline NotificationPosition = "inline"
)

// Options is an immutable configuration snapshot captured at Detector
// construction. UpdateOptions replaces the whole value rather than mutating
// fields, so configuration is never observed partially applied.
type Options struct {
	// CheckOnSave asks the consumer's save path to run a check before
	// writing. The core carries the flag; the save integration enforces it.
	CheckOnSave bool

	// CheckInterval is the background polling interval. Zero disables
	// polling; non-zero values are clamped to
	// [MinCheckInterval, MaxCheckInterval].
	CheckInterval time.Duration

	// ShowNotification asks the consumer to surface detected conflicts.
	ShowNotification bool

	// BlockSave asks the consumer to block saving until the conflict is
	// resolved.
	BlockSave bool

	// LogConflicts enables the conflict audit trail when a ConflictLogger
	// is attached.
	LogConflicts bool

	// NotificationPosition is where the consumer should place its
	// notification surface.
	NotificationPosition NotificationPosition

	// CustomMessage overrides the consumer's default conflict message.
	CustomMessage string

	// OnConflictDetected fires when a check finds a conflict that was not
	// already flagged. Edge-triggered: re-checks of a known, unresolved
	// conflict do not re-fire it.
	OnConflictDetected func(info *ConflictInfo)

	// OnConflictResolved fires when UpdateSnapshot clears a flagged
	// conflict.
	OnConflictResolved func()
}

// Option mutates an Options value during construction or UpdateOptions.
type Option func(*Options)

// WithCheckOnSave enables a pre-save check.
func WithCheckOnSave(enabled bool) Option {
	return func(o *Options) { o.CheckOnSave = enabled }
}

// WithCheckInterval sets the polling interval. The effective interval is
// clamped to the [MinCheckInterval, MaxCheckInterval] band.
func WithCheckInterval(interval time.Duration) Option {
	return func(o *Options) { o.CheckInterval = interval }
}

// WithNotification enables conflict notifications.
func WithNotification(enabled bool) Option {
	return func(o *Options) { o.ShowNotification = enabled }
}

// WithBlockSave blocks saving while a conflict is unresolved.
func WithBlockSave(enabled bool) Option {
	return func(o *Options) { o.BlockSave = enabled }
}

// WithConflictLogging enables the conflict audit trail.
func WithConflictLogging(enabled bool) Option {
	return func(o *Options) { o.LogConflicts = enabled }
}

// WithNotificationPosition sets where notifications should be placed.
func WithNotificationPosition(pos NotificationPosition) Option {
	return func(o *Options) { o.NotificationPosition = pos }
}

// WithCustomMessage overrides the default conflict message.
func WithCustomMessage(msg string) Option {
	return func(o *Options) { o.CustomMessage = msg }
}

// WithOnConflictDetected sets the detection callback.
func WithOnConflictDetected(fn func(info *ConflictInfo)) Option {
	return func(o *Options) { o.OnConflictDetected = fn }
}

// WithOnConflictResolved sets the resolution callback.
func WithOnConflictResolved(fn func()) Option {
	return func(o *Options) { o.OnConflictResolved = fn }
}

// clampInterval pulls an interval into the allowed polling band. Zero stays
// zero: it means polling is disabled, not "poll as fast as possible".
func clampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d < MinCheckInterval {
		return MinCheckInterval
	}
	if d > MaxCheckInterval {
		return MaxCheckInterval
	}
	return d
}

// Named presets. Presets only set option values; they carry no behavior.

// PresetSilent logs conflicts without notifying or blocking.
func PresetSilent() Options {
	return Options{
		LogConflicts:         true,
		NotificationPosition: PositionTop,
	}
}

// PresetNotify informs the user but never blocks saving.
func PresetNotify() Options {
	return Options{
		CheckOnSave:          true,
		ShowNotification:     true,
		NotificationPosition: PositionTop,
	}
}

// PresetStrict blocks the save action until the conflict is resolved.
func PresetStrict() Options {
	return Options{
		CheckOnSave:          true,
		ShowNotification:     true,
		BlockSave:            true,
		LogConflicts:         true,
		NotificationPosition: PositionTop,
	}
}

// PresetRealtime notifies and polls the backing store every 30 seconds.
func PresetRealtime() Options {
	return Options{
		CheckOnSave:          true,
		ShowNotification:     true,
		CheckInterval:        30 * time.Second,
		NotificationPosition: PositionTop,
	}
}

// PresetFormCustomizer notifies with inline positioning, for embedded form
// surfaces that have no page-level notification bar.
func PresetFormCustomizer() Options {
	return Options{
		CheckOnSave:          true,
		ShowNotification:     true,
		NotificationPosition: PositionInline,
	}
}

// PresetByName resolves a preset identifier as used in configuration files.
// Returns the notify preset and false for unknown names.
func PresetByName(name string) (Options, bool) {
	switch name {
	case "silent":
		return PresetSilent(), true
	case "notify":
		return PresetNotify(), true
	case "strict":
		return PresetStrict(), true
	case "realtime":
		return PresetRealtime(), true
	case "formCustomizer":
		return PresetFormCustomizer(), true
	default:
		return PresetNotify(), false
	}
}
