package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
)

func newMockedStore(fm *fileManagementMock) *Store {
	logger, _ := test.NewNullLogger()
	return &Store{
		path:           "monitor_config.yaml",
		fileManagement: fm,
		log:            logger.WithField("Component", "Config"),
	}
}

func TestGivenMissingFileThenLoadDefaults(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(filepath.Join(t.TempDir(), "missing.yaml"), logger.WithField("Component", "Config"))

	configuration, err := store.Load()

	assert.NoError(t, err)
	assert.Empty(t, configuration.FrontAddress)
	assert.Empty(t, configuration.RearAddress)
	assert.False(t, configuration.Paired())
	assert.Equal(t, entities.DefaultFrontIdealPSI, configuration.FrontIdealPSI)
	assert.Equal(t, entities.DefaultRearIdealPSI, configuration.RearIdealPSI)
	assert.Equal(t, entities.DefaultPressureUnit, configuration.PressureUnit)
	assert.Equal(t, entities.MaxBrightnessIndex, configuration.BrightnessIndex)
}

func TestGivenExistingFileThenLoadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor_config.yaml")
	content := "front_address: aa:bb:cc:dd:ee:01\nrear_address: aa:bb:cc:dd:ee:02\nfront_ideal_psi: 32.5\nrear_ideal_psi: 40\npressure_unit: BAR\nbrightness_index: 2\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0600))

	logger, _ := test.NewNullLogger()
	store := NewStore(path, logger.WithField("Component", "Config"))
	configuration, err := store.Load()

	assert.NoError(t, err)
	assert.True(t, configuration.Paired())
	assert.Equal(t, 32.5, configuration.FrontIdealPSI)
	assert.Equal(t, "BAR", configuration.PressureUnit)
	assert.Equal(t, 2, configuration.BrightnessIndex)
}

func TestGivenPairingResultThenSetAddressesWrites(t *testing.T) {
	fm := new(fileManagementMock)
	fm.On("writeConfigFile").Return(nil)
	store := newMockedStore(fm)

	err := store.SetAddresses("aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02")

	assert.NoError(t, err)
	assert.True(t, store.Current().Paired())
	fm.AssertNumberOfCalls(t, "writeConfigFile", 1)
}

func TestGivenClearAddressesThenUnpaired(t *testing.T) {
	fm := new(fileManagementMock)
	fm.On("writeConfigFile").Return(nil)
	store := newMockedStore(fm)
	assert.NoError(t, store.SetAddresses("aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"))

	err := store.ClearAddresses()

	assert.NoError(t, err)
	assert.False(t, store.Current().Paired())
	assert.Empty(t, store.Current().FrontAddress)
}

func TestGivenWriteFailureThenErrorPropagates(t *testing.T) {
	fm := new(fileManagementMock)
	fm.On("writeConfigFile").Return(errors.New("disk full"))
	store := newMockedStore(fm)

	err := store.SetAddresses("aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02")

	assert.Error(t, err)
}

func TestGivenOutOfRangeBrightnessThenClamped(t *testing.T) {
	fm := new(fileManagementMock)
	fm.On("writeConfigFile").Return(nil)
	store := newMockedStore(fm)

	assert.NoError(t, store.SetBrightnessIndex(9))

	assert.Equal(t, entities.MaxBrightnessIndex, store.Current().BrightnessIndex)
}

func TestGivenSettingsUpdateThenIdealPressuresChange(t *testing.T) {
	fm := new(fileManagementMock)
	fm.On("writeConfigFile").Return(nil)
	store := newMockedStore(fm)

	assert.NoError(t, store.SetIdealPressures(34, 0, "BAR"))

	current := store.Current()
	assert.Equal(t, 34.0, current.FrontIdealPSI)
	// zero means keep the previous value
	assert.Equal(t, 0.0, current.RearIdealPSI)
	assert.Equal(t, "BAR", current.PressureUnit)
}
