package control

const (
	// SplashDelayMS is the delay from process start to the startup screen.
	SplashDelayMS int64 = 1000
	// MainDelayMS is the delay to the main or pairing screen.
	MainDelayMS int64 = 4500
)

// ScreenEvent is a one-shot screen transition.
type ScreenEvent int

const (
	ScreenNone ScreenEvent = iota
	ScreenSplash
	ScreenMain
	ScreenPair
)

// ScreenTimer latches the two startup screen transitions. Both fire at
// most once for the lifetime of the process.
type ScreenTimer struct {
	startMS     int64
	splashShown bool
	mainShown   bool
}

func NewScreenTimer(startMS int64) *ScreenTimer {
	return &ScreenTimer{startMS: startMS}
}

// MainShown reports whether the second transition already fired.
func (s *ScreenTimer) MainShown() bool { return s.mainShown }

// Tick returns the transition due at now, if any. Which screen the
// second transition picks depends on whether both wheel roles are
// assigned at that moment.
func (s *ScreenTimer) Tick(nowMS int64, paired bool) ScreenEvent {
	elapsed := nowMS - s.startMS

	if elapsed >= SplashDelayMS && !s.splashShown {
		s.splashShown = true
		return ScreenSplash
	}
	if elapsed >= MainDelayMS && !s.mainShown {
		s.mainShown = true
		if paired {
			return ScreenMain
		}
		return ScreenPair
	}
	return ScreenNone
}
