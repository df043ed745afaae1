package config

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
	"github.com/velomon/tpms-monitor-golang/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Store persists the monitor configuration to a yaml file. The pairing
// workflow writes the two addresses through it on completion; settings
// changes from the button or the broker go through it as well.
type Store struct {
	mutex          sync.Mutex
	path           string
	fileManagement filesystemManagement
	current        entities.MonitorConfig
	log            *logrus.Entry
}

func NewStore(path string, log *logrus.Entry) *Store {
	return &Store{
		path:           path,
		fileManagement: new(fileManagement),
		log:            log,
	}
}

// Load reads the configuration file and fills in defaults for the
// settings the file does not carry. A missing file is not an error, the
// device simply starts unpaired.
func (s *Store) Load() (entities.MonitorConfig, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	configuration, err := utils.ConfigurationParser(s.path, entities.MonitorConfig{})
	if err != nil {
		s.log.Warnf("no configuration loaded from %s: %v", s.path, err)
		configuration = entities.MonitorConfig{BrightnessIndex: entities.MaxBrightnessIndex}
	}

	if configuration.FrontIdealPSI == 0 {
		configuration.FrontIdealPSI = entities.DefaultFrontIdealPSI
	}
	if configuration.RearIdealPSI == 0 {
		configuration.RearIdealPSI = entities.DefaultRearIdealPSI
	}
	if configuration.PressureUnit == "" {
		configuration.PressureUnit = entities.DefaultPressureUnit
	}
	if configuration.BrightnessIndex < 0 || configuration.BrightnessIndex > entities.MaxBrightnessIndex {
		configuration.BrightnessIndex = entities.MaxBrightnessIndex
	}

	s.current = configuration
	return configuration, nil
}

// Current returns a copy of the configuration held in memory.
func (s *Store) Current() entities.MonitorConfig {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.current
}

// SetAddresses persists a completed pairing.
func (s *Store) SetAddresses(front, rear string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current.FrontAddress = front
	s.current.RearAddress = rear
	return s.write()
}

// ClearAddresses drops the pairing, the device restarts the workflow on
// the next pairing screen.
func (s *Store) ClearAddresses() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current.FrontAddress = ""
	s.current.RearAddress = ""
	return s.write()
}

// SetBrightnessIndex persists the backlight level picked by cycling.
func (s *Store) SetBrightnessIndex(index int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if index < 0 || index > entities.MaxBrightnessIndex {
		index = entities.MaxBrightnessIndex
	}
	s.current.BrightnessIndex = index
	return s.write()
}

// SetIdealPressures persists remotely updated target pressures.
func (s *Store) SetIdealPressures(frontPSI, rearPSI float64, unit string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if frontPSI > 0 {
		s.current.FrontIdealPSI = frontPSI
	}
	if rearPSI > 0 {
		s.current.RearIdealPSI = rearPSI
	}
	if unit == "PSI" || unit == "BAR" {
		s.current.PressureUnit = unit
	}
	return s.write()
}

func (s *Store) write() error {
	data, err := yaml.Marshal(&s.current)
	if err != nil {
		return err
	}

	err = s.fileManagement.writeConfigFile(s.path, data)
	if err != nil {
		s.log.Errorf("failed to write configuration: %v", err)
		return err
	}

	s.log.Info("wrote configuration file")
	return nil
}
