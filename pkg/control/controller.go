package control

import (
	"github.com/sirupsen/logrus"
)

const (
	ModeNormal       string = "normal"
	ModePairing      string = "pairing"
	ModeConfigPortal string = "configPortal"
)

const (
	// LongPressMS separates a short press from a long one.
	LongPressMS int64 = 2000
	// VeryLongPressMS fires while the button is still held.
	VeryLongPressMS int64 = 15000
)

// Hooks are the mode-dependent actions the controller dispatches into.
// Short and Long receive the mode the press happened in.
type Hooks struct {
	Short             func(mode string)
	Long              func(mode string)
	EnterConfigPortal func()
	ExitConfigPortal  func()
}

type buttonState struct {
	level             bool
	pressStartedMS    int64
	alreadyDispatched bool
}

// Controller classifies press duration against the sampled button level
// and owns the three-way operating mode. It runs on the single control
// loop tick, so it carries no lock of its own.
type Controller struct {
	mode   string
	button buttonState
	hooks  Hooks
	log    *logrus.Entry
}

func NewController(hooks Hooks, log *logrus.Entry) *Controller {
	return &Controller{
		mode:  ModeNormal,
		hooks: hooks,
		log:   log,
	}
}

func (c *Controller) Mode() string { return c.mode }

// SetMode switches between normal and pairing operation. The config
// portal is only entered through a very-long press.
func (c *Controller) SetMode(mode string) {
	if c.mode == ModeConfigPortal {
		return
	}
	c.mode = mode
}

// HandleButtonSample consumes one polled button level. Classification:
// release before 2 s is short, release between 2 s and 15 s is long, a
// hold reaching 15 s fires the very-long action immediately. The
// dispatched flag makes sure one physical press fires at most once.
func (c *Controller) HandleButtonSample(pressed bool, nowMS int64) {
	switch {
	case pressed && !c.button.level:
		c.button.pressStartedMS = nowMS
		c.button.alreadyDispatched = false
		c.log.Debug("button pressed")

	case pressed && c.button.level:
		if c.button.alreadyDispatched {
			break
		}
		held := nowMS - c.button.pressStartedMS
		if c.mode == ModeConfigPortal {
			if held >= LongPressMS {
				c.button.alreadyDispatched = true
				c.exitConfigPortal()
			}
		} else if held >= VeryLongPressMS {
			c.button.alreadyDispatched = true
			c.enterConfigPortal()
		}

	case !pressed && c.button.level:
		duration := nowMS - c.button.pressStartedMS
		if !c.button.alreadyDispatched {
			if duration < LongPressMS {
				c.log.Debugf("short press (%d ms) in mode %s", duration, c.mode)
				if c.hooks.Short != nil {
					c.hooks.Short(c.mode)
				}
			} else if duration < VeryLongPressMS {
				c.log.Infof("long press (%d ms) in mode %s", duration, c.mode)
				if c.hooks.Long != nil {
					c.hooks.Long(c.mode)
				}
			}
		}
		c.button.alreadyDispatched = false
	}

	c.button.level = pressed
}

func (c *Controller) enterConfigPortal() {
	c.log.Info("very long press, entering config portal")
	c.mode = ModeConfigPortal
	if c.hooks.EnterConfigPortal != nil {
		c.hooks.EnterConfigPortal()
	}
}

func (c *Controller) exitConfigPortal() {
	c.log.Info("leaving config portal")
	c.mode = ModeNormal
	if c.hooks.ExitConfigPortal != nil {
		c.hooks.ExitConfigPortal()
	}
}
