// Package config persists the per-role screen settings.
package config

// DisplayMode selects how a surface presents itself when opened.
type DisplayMode string

const (
	DisplayModeWindowed   DisplayMode = "windowed"
	DisplayModeFullscreen DisplayMode = "fullscreen"
)

// TimerMode mirrors timer display modes in the persisted record.
type TimerMode string

const (
	TimerModeElapsed   TimerMode = "elapsed"
	TimerModeCountdown TimerMode = "countdown"
)

const DefaultCountdownSeconds = 300

// MainScreen holds the persisted settings of the main output role.
type MainScreen struct {
	Enabled     bool        `json:"enabled"`
	DisplayMode DisplayMode `json:"displayMode"`
}

// StageScreen holds the persisted settings of the stage display role.
type StageScreen struct {
	Enabled          bool        `json:"enabled"`
	DisplayMode      DisplayMode `json:"displayMode"`
	TimerMode        TimerMode   `json:"timerMode"`
	CountdownSeconds int         `json:"countdownSeconds"`
}

// ScreenConfig is the persisted per-role settings record. Saving then loading
// reproduces the identical structure.
type ScreenConfig struct {
	Main  MainScreen  `json:"main"`
	Stage StageScreen `json:"stage"`
}

// Default returns the settings used when no record exists or a field is
// missing.
func Default() ScreenConfig {
	return ScreenConfig{
		Main: MainScreen{
			Enabled:     true,
			DisplayMode: DisplayModeWindowed,
		},
		Stage: StageScreen{
			Enabled:          true,
			DisplayMode:      DisplayModeWindowed,
			TimerMode:        TimerModeElapsed,
			CountdownSeconds: DefaultCountdownSeconds,
		},
	}
}

// Normalize replaces invalid field values with their defaults. Missing fields
// are already handled by loading on top of Default; this catches values that
// were present but unusable.
func (c *ScreenConfig) Normalize() {
	if c.Main.DisplayMode != DisplayModeWindowed && c.Main.DisplayMode != DisplayModeFullscreen {
		c.Main.DisplayMode = DisplayModeWindowed
	}
	if c.Stage.DisplayMode != DisplayModeWindowed && c.Stage.DisplayMode != DisplayModeFullscreen {
		c.Stage.DisplayMode = DisplayModeWindowed
	}
	if c.Stage.TimerMode != TimerModeElapsed && c.Stage.TimerMode != TimerModeCountdown {
		c.Stage.TimerMode = TimerModeElapsed
	}
	if c.Stage.CountdownSeconds <= 0 {
		c.Stage.CountdownSeconds = DefaultCountdownSeconds
	}
}
