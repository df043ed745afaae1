package app

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/velomon/tpms-monitor-golang/pkg/config"
	"github.com/velomon/tpms-monitor-golang/pkg/control"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network"
	"github.com/velomon/tpms-monitor-golang/pkg/logging"
	"github.com/velomon/tpms-monitor-golang/pkg/pairing"
	"github.com/velomon/tpms-monitor-golang/pkg/tpms"
)

const (
	controlTickMS = 100
	sweepTickMS   = 20
)

// AdvertisementHandler consumes one discovered radio advertisement.
type AdvertisementHandler func(address string, payload []byte, hasServiceHint bool)

// Radio is the scanning collaborator. It delivers advertisements through
// the registered handler and restarts scanning on its own when a scan
// window ends.
type Radio interface {
	OnAdvertisement(handler AdvertisementHandler)
}

// Display renders read-only snapshots. It never mutates core state.
type Display interface {
	ShowSplash()
	ShowMain()
	ShowPair()
	UpdateSensors(front, rear entities.SensorReading, configuration entities.MonitorConfig)
	UpdatePairing(state, candidate string, remainingMS int64)
	SetBacklightBrightness(percent uint8)
}

// Button exposes the polled physical button level, true while pressed.
// The signal is assumed clean, no debounce happens here.
type Button interface {
	Pressed() bool
}

// ConfigPortal is the WiFi access-point / configuration-server
// collaborator toggled by the very-long press.
type ConfigPortal interface {
	Start() error
	Stop() error
}

// Options wires the collaborators into a monitor App.
type Options struct {
	ConfigPath string
	Telemetry  *entities.TelemetryConfig
	Radio      Radio
	Display    Display
	Button     Button
	Portal     ConfigPortal
	Clock      func() int64
	Logger     *logging.Logrus
}

// App owns the core components and runs the two periodic loops: the
// 100 ms control tick driving the state machines and the 20 ms sweep
// tick evicting stale registry entries.
type App struct {
	store      *config.Store
	registry   *tpms.Registry
	dispatcher *tpms.Dispatcher
	session    *pairing.Session
	controller *control.Controller
	screen     *control.ScreenTimer
	exporter   *telemetry.Exporter

	radio   Radio
	display Display
	button  Button
	portal  ConfigPortal
	clock   func() int64

	mutex         sync.Mutex
	configuration entities.MonitorConfig
	lastNewSensor string

	logFactory *logging.Logrus
	log        *logrus.Entry
	stop       chan struct{}
	stopOnce   sync.Once
}

func New(options Options) (*App, error) {
	if options.Clock == nil {
		options.Clock = func() int64 { return time.Now().UnixMilli() }
	}

	a := &App{
		radio:      options.Radio,
		display:    options.Display,
		button:     options.Button,
		portal:     options.Portal,
		clock:      options.Clock,
		logFactory: options.Logger,
		log:        options.Logger.Get("App"),
		stop:       make(chan struct{}),
	}

	a.store = config.NewStore(options.ConfigPath, options.Logger.Get("Config"))
	configuration, err := a.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	a.configuration = configuration
	a.log.Infof("loaded sensor addresses: front=%s, rear=%s, paired=%t",
		configuration.FrontAddress, configuration.RearAddress, configuration.Paired())

	a.registry = tpms.NewRegistry(options.Logger.Get("Registry"))
	a.dispatcher = tpms.NewDispatcher(a.registry, a.clock, a.onReadingChanged, options.Logger.Get("Dispatcher"))
	a.session = pairing.NewSession(a.onPairingComplete, options.Logger.Get("Pairing"))
	a.controller = control.NewController(control.Hooks{
		Short:             a.onShortPress,
		Long:              a.onLongPress,
		EnterConfigPortal: a.onEnterConfigPortal,
		ExitConfigPortal:  a.onExitConfigPortal,
	}, options.Logger.Get("Control"))
	a.screen = control.NewScreenTimer(a.clock())

	if options.Telemetry != nil {
		a.exporter, err = telemetry.NewExporter(*options.Telemetry, a.onSettingsUpdated, options.Logger.Get("Telemetry"))
		if err != nil {
			return nil, errors.Wrap(err, "telemetry exporter")
		}
	}

	return a, nil
}

// Start hooks the radio callback and launches the periodic loops.
func (a *App) Start() {
	a.radio.OnAdvertisement(a.dispatcher.HandleAdvertisement)
	a.display.SetBacklightBrightness(entities.BrightnessLevels[a.currentConfig().BrightnessIndex])

	go a.controlLoop()
	go a.sweepLoop()
}

// Close stops the loops and the broker connection.
func (a *App) Close() error {
	a.stopOnce.Do(func() { close(a.stop) })
	if a.exporter != nil {
		return a.exporter.Close()
	}
	return nil
}

func (a *App) controlLoop() {
	ticker := time.NewTicker(controlTickMS * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *App) sweepLoop() {
	ticker := time.NewTicker(sweepTickMS * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.registry.Sweep(a.clock())
		}
	}
}

func (a *App) tick() {
	nowMS := a.clock()
	configuration := a.currentConfig()
	paired := configuration.Paired()

	switch a.screen.Tick(nowMS, paired) {
	case control.ScreenSplash:
		a.display.ShowSplash()
	case control.ScreenMain:
		a.display.ShowMain()
	case control.ScreenPair:
		a.display.ShowPair()
	case control.ScreenNone:
	}

	if !a.screen.MainShown() {
		return
	}

	if a.controller.Mode() != control.ModeConfigPortal {
		if paired {
			a.controller.SetMode(control.ModeNormal)
		} else {
			a.controller.SetMode(control.ModePairing)
		}
	}

	a.controller.HandleButtonSample(a.button.Pressed(), nowMS)

	if a.controller.Mode() == control.ModePairing {
		a.session.ObserveRegistry(a.registry.Count(), a.latestNewSensor())
		a.session.Tick(nowMS)
		a.display.UpdatePairing(a.session.State(), a.sessionCandidate(), a.session.RemainingMS(nowMS))
	} else if paired {
		front, _ := a.registry.Get(configuration.FrontAddress)
		rear, _ := a.registry.Get(configuration.RearAddress)
		a.display.UpdateSensors(front, rear, configuration)
	}
}

func (a *App) sessionCandidate() string {
	switch a.session.State() {
	case pairing.StateWaitingFrontConfirm:
		return a.session.FrontCandidate()
	case pairing.StateWaitingRearConfirm:
		return a.session.RearCandidate()
	}
	return ""
}

// onReadingChanged runs in the radio callback context.
func (a *App) onReadingChanged(reading entities.SensorReading, isNew bool) {
	if isNew {
		a.mutex.Lock()
		a.lastNewSensor = reading.Address()
		a.mutex.Unlock()
	}
	if a.exporter != nil {
		_ = a.exporter.ExportReading(reading)
	}
}

func (a *App) onPairingComplete(result pairing.Result) {
	if err := a.store.SetAddresses(result.FrontAddress, result.RearAddress); err != nil {
		a.log.Errorln(err)
		return
	}
	a.setConfig(a.store.Current())

	if a.exporter != nil {
		_ = a.exporter.ExportPairingResult(result.FrontAddress, result.RearAddress)
	}
}

func (a *App) onShortPress(mode string) {
	switch mode {
	case control.ModePairing:
		a.session.HandleButton(a.clock())
	case control.ModeNormal:
		a.cycleBrightness()
	}
}

// onLongPress clears the pairing and restarts the workflow with a fresh
// session, which also invalidates any observation aimed at the old one.
func (a *App) onLongPress(mode string) {
	if mode != control.ModeNormal && mode != control.ModePairing {
		return
	}

	a.log.Info("long press: clearing sensor pairing")
	if err := a.store.ClearAddresses(); err != nil {
		a.log.Errorln(err)
	}
	a.setConfig(a.store.Current())
	a.session = pairing.NewSession(a.onPairingComplete, a.logFactory.Get("Pairing"))
}

func (a *App) onEnterConfigPortal() {
	if err := a.portal.Start(); err != nil {
		a.log.Errorln(err)
	}
}

func (a *App) onExitConfigPortal() {
	if err := a.portal.Stop(); err != nil {
		a.log.Errorln(err)
	}
}

func (a *App) cycleBrightness() {
	configuration := a.currentConfig()
	index := (configuration.BrightnessIndex + 1) % len(entities.BrightnessLevels)
	if err := a.store.SetBrightnessIndex(index); err != nil {
		a.log.Errorln(err)
	}
	a.setConfig(a.store.Current())
	a.display.SetBacklightBrightness(entities.BrightnessLevels[index])
	a.log.Infof("brightness set to %d%%", entities.BrightnessLevels[index])
}

// onSettingsUpdated runs in the broker consumer context.
func (a *App) onSettingsUpdated(settings network.SettingsUpdatedMessage) {
	if err := a.store.SetIdealPressures(settings.FrontIdealPSI, settings.RearIdealPSI, settings.PressureUnit); err != nil {
		a.log.Errorln(err)
		return
	}
	a.setConfig(a.store.Current())
}

func (a *App) currentConfig() entities.MonitorConfig {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.configuration
}

func (a *App) setConfig(configuration entities.MonitorConfig) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.configuration = configuration
}

func (a *App) latestNewSensor() string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.lastNewSensor
}
