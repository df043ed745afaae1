package pairing

import (
	"github.com/sirupsen/logrus"
)

const (
	StateScanningFront       string = "scanningFront"
	StateWaitingFrontConfirm string = "waitingFrontConfirm"
	StateScanningRear        string = "scanningRear"
	StateWaitingRearConfirm  string = "waitingRearConfirm"
	StateTimeoutFront        string = "timeoutFront"
	StateTimeoutRear         string = "timeoutRear"
	StateComplete            string = "complete"
)

// ScanTimeoutMS is the scan window per wheel role.
const ScanTimeoutMS int64 = 60000

// Result carries the two confirmed addresses of a completed session.
type Result struct {
	FrontAddress string
	RearAddress  string
}

// Session drives the front/rear pairing workflow. It starts in
// StateScanningFront with no active window: a candidate may already be
// accepted, but the timeout clock only runs once a button press starts
// the scan. A session is single use; abandoning or completing one means
// constructing a fresh Session, which also discards any in-flight
// registry observation aimed at the old one.
type Session struct {
	state           string
	frontCandidate  string
	rearCandidate   string
	scanDeadlineMS  int64
	lastSensorCount int
	onComplete      func(Result)
	log             *logrus.Entry
}

func NewSession(onComplete func(Result), log *logrus.Entry) *Session {
	return &Session{
		state:      StateScanningFront,
		onComplete: onComplete,
		log:        log,
	}
}

func (s *Session) State() string          { return s.state }
func (s *Session) FrontCandidate() string { return s.frontCandidate }
func (s *Session) RearCandidate() string  { return s.rearCandidate }
func (s *Session) IsComplete() bool       { return s.state == StateComplete }

// RemainingMS reports how much of the scan window is left, zero when no
// window is running.
func (s *Session) RemainingMS(nowMS int64) int64 {
	if s.scanDeadlineMS == 0 || nowMS >= s.scanDeadlineMS {
		return 0
	}
	return s.scanDeadlineMS - nowMS
}

// HandleButton advances the workflow on a confirm press.
func (s *Session) HandleButton(nowMS int64) {
	switch s.state {
	case StateWaitingFrontConfirm:
		s.log.Infof("front sensor %s confirmed, scanning rear", s.frontCandidate)
		s.startRearScan(nowMS)
	case StateWaitingRearConfirm:
		s.complete()
	case StateScanningFront, StateTimeoutFront:
		s.startFrontScan(nowMS)
	case StateScanningRear, StateTimeoutRear:
		s.startRearScan(nowMS)
	case StateComplete:
	}
}

// ObserveRegistry checks whether a new sensor appeared since the last
// observation. A rear candidate equal to the front one is ignored so the
// same physical sensor cannot take both roles.
func (s *Session) ObserveRegistry(sensorCount int, newestAddress string) {
	if s.state != StateScanningFront && s.state != StateScanningRear {
		return
	}

	if sensorCount > s.lastSensorCount && sensorCount > 0 && newestAddress != "" {
		if s.state == StateScanningFront {
			s.frontCandidate = newestAddress
			s.state = StateWaitingFrontConfirm
			s.log.Infof("front sensor found: %s", newestAddress)
		} else if newestAddress != s.frontCandidate {
			s.rearCandidate = newestAddress
			s.state = StateWaitingRearConfirm
			s.log.Infof("rear sensor found: %s", newestAddress)
		} else {
			s.log.Infof("ignoring sensor %s, already selected for front", newestAddress)
		}
	}

	s.lastSensorCount = sensorCount
}

// Tick expires a running scan window.
func (s *Session) Tick(nowMS int64) {
	if s.scanDeadlineMS == 0 || nowMS < s.scanDeadlineMS {
		return
	}

	switch s.state {
	case StateScanningFront:
		s.state = StateTimeoutFront
		s.scanDeadlineMS = 0
		s.log.Info("front scan timed out")
	case StateScanningRear:
		s.state = StateTimeoutRear
		s.scanDeadlineMS = 0
		s.log.Info("rear scan timed out")
	}
}

func (s *Session) startFrontScan(nowMS int64) {
	s.state = StateScanningFront
	s.scanDeadlineMS = nowMS + ScanTimeoutMS
	s.lastSensorCount = 0
	s.log.Info("starting front wheel scan")
}

func (s *Session) startRearScan(nowMS int64) {
	s.state = StateScanningRear
	s.scanDeadlineMS = nowMS + ScanTimeoutMS
	s.lastSensorCount = 0
	s.log.Info("starting rear wheel scan")
}

// complete refuses to finish with a missing address: that is the one
// hard precondition in the workflow, nothing may be persisted then.
func (s *Session) complete() {
	if s.frontCandidate == "" || s.rearCandidate == "" {
		s.log.Error("refusing to complete pairing with a missing sensor address")
		return
	}

	s.state = StateComplete
	s.scanDeadlineMS = 0
	s.log.Infof("pairing complete: front %s, rear %s", s.frontCandidate, s.rearCandidate)

	if s.onComplete != nil {
		s.onComplete(Result{FrontAddress: s.frontCandidate, RearAddress: s.rearCandidate})
	}
}
