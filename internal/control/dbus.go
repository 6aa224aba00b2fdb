// Package control exposes the daemon's D-Bus control surface: a session-bus
// object offering StartRecording, StopRecording, Confirm, Shutdown, Status,
// and HealthCheck.
package control

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	// BusName is the well-known D-Bus name the daemon requests.
	BusName = "com.speakdesk.Dictd"
	// ObjectPath is the path of the exported control object.
	ObjectPath = dbus.ObjectPath("/com/speakdesk/Dictd")
	// InterfaceName is the D-Bus interface exposing the control methods.
	InterfaceName = "com.speakdesk.Dictd.Control"
)

// HealthStatus is one of "healthy", "idle", "unknown", reported per
// subsystem by HealthCheck.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthIdle    HealthStatus = "idle"
	HealthUnknown HealthStatus = "unknown"
)

// Commands is the set of daemon actions the control object invokes. The
// daemon's state machine implements this; Server only translates D-Bus
// method calls into these calls.
type Commands interface {
	StartRecording() error
	StopRecording() error
	Confirm() error
	Shutdown() error
	// Status returns the state string ("idle"|"recording"|"processing")
	// and whether a session is active.
	Status() (state string, sessionActive bool)
	// HealthCheck reports per-subsystem health: gui, monitor, audio.
	HealthCheck() (gui, monitor, audio HealthStatus)
}

// Server exports Commands over the session D-Bus bus.
type Server struct {
	conn     *dbus.Conn
	commands Commands
	log      *logrus.Entry
}

// NewServer connects to the session bus, exports the control object, and
// requests BusName.
func NewServer(commands Commands) (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}

	s := &Server{conn: conn, commands: commands, log: logrus.WithField("component", "control.dbus")}

	if err := conn.Export(s, ObjectPath, InterfaceName); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errNameTaken
	}

	return s, nil
}

var errNameTaken = dbusError("control: bus name already owned")

type dbusError string

func (e dbusError) Error() string { return string(e) }

// Close releases the bus name and closes the connection.
func (s *Server) Close() error {
	_, _ = s.conn.ReleaseName(BusName)
	return s.conn.Close()
}

// The methods below are exported over D-Bus via reflection
// (github.com/godbus/dbus/v5's Conn.Export convention: exported Go methods
// returning (..., *dbus.Error) become callable D-Bus methods).

func (s *Server) StartRecording() *dbus.Error {
	if err := s.commands.StartRecording(); err != nil {
		s.log.WithError(err).Warn("StartRecording failed")
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Server) StopRecording() *dbus.Error {
	if err := s.commands.StopRecording(); err != nil {
		s.log.WithError(err).Warn("StopRecording failed")
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Server) Confirm() *dbus.Error {
	if err := s.commands.Confirm(); err != nil {
		s.log.WithError(err).Warn("Confirm failed")
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Server) Shutdown() *dbus.Error {
	if err := s.commands.Shutdown(); err != nil {
		s.log.WithError(err).Warn("Shutdown failed")
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Server) Status() (string, bool, *dbus.Error) {
	state, active := s.commands.Status()
	return state, active, nil
}

func (s *Server) HealthCheck() (string, string, string, *dbus.Error) {
	gui, monitor, audio := s.commands.HealthCheck()
	return string(gui), string(monitor), string(audio), nil
}
