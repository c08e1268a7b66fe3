// session.go
/*
versafix — FIX protocol engine
Copyright (C) 2025 Steve Clarke <stephenlclarke@mac.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

In accordance with section 13 of the AGPL, if you modify this program,
your modified version must prominently offer all users interacting with it
remotely through a computer network an opportunity to receive the source
code of your version.
*/

// Package session runs the FIX session layer over parsed messages: logon
// and logout handshakes, heartbeats and test requests, sequence number
// accounting and resend handling. The transport feeds it messages; it hands
// application messages to a callback interface.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stephenlclarke/versafix/fix"
)

// ID identifies a session by its protocol version and counterparty pair.
type ID struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
}

func (id ID) String() string {
	return id.BeginString + ":" + id.SenderCompID + "->" + id.TargetCompID
}

// State is the session lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateLogonSent
	StateActive
	StateLogoutSent
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateLogonSent:
		return "logon sent"
	case StateActive:
		return "active"
	case StateLogoutSent:
		return "logout sent"
	default:
		return "unknown"
	}
}

// Config carries the per-session settings.
type Config struct {
	BeginString  string
	SenderCompID string
	TargetCompID string

	// HeartBtInt is the negotiated heartbeat interval.
	HeartBtInt time.Duration

	// ResetSeqNumOnLogon sends 141=Y and resets both sequence numbers when
	// logging on.
	ResetSeqNumOnLogon bool

	// Acceptor marks the server side: it answers logons instead of
	// initiating them.
	Acceptor bool
}

// Application receives session callbacks. FromApp is invoked for every
// non-administrative message; an error it returns leaves the sequence number
// advanced and is returned from Receive.
type Application interface {
	OnLogon(s *Session)
	OnLogout(s *Session)
	FromAdmin(s *Session, m *fix.Message) error
	FromApp(s *Session, m *fix.Message) error
	ToAdmin(s *Session, m *fix.Message)
	ToApp(s *Session, m *fix.Message) error
}

// MessageWriter is the transport-facing half of a session: finished wire
// bytes go out through it.
type MessageWriter interface {
	WriteMessage(raw []byte) error
}

// Session is one FIX session. All entry points are safe for concurrent use;
// internally the session is serialized by a single mutex.
type Session struct {
	id       ID
	instance uuid.UUID
	cfg      Config
	store    Store
	app      Application
	writer   MessageWriter
	log      zerolog.Logger

	mu            sync.Mutex
	state         State
	lastSent      time.Time
	lastReceived  time.Time
	pendingTestID string
	clock         func() time.Time
}

// New assembles a session. The logger is enriched with the session id and a
// per-instance uuid so interleaved session logs stay separable.
func New(cfg Config, store Store, app Application, writer MessageWriter, log zerolog.Logger) *Session {
	id := ID{BeginString: cfg.BeginString, SenderCompID: cfg.SenderCompID, TargetCompID: cfg.TargetCompID}
	instance := uuid.New()

	return &Session{
		id:       id,
		instance: instance,
		cfg:      cfg,
		store:    store,
		app:      app,
		writer:   writer,
		log:      log.With().Str("session", id.String()).Str("instance", instance.String()).Logger(),
		clock:    time.Now,
	}
}

// ID returns the session identity.
func (s *Session) ID() ID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Logon sends the initial logon. Acceptor sessions instead wait for the
// counterparty's logon to arrive via Receive.
func (s *Session) Logon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.ResetSeqNumOnLogon {
		s.store.Reset()
	}

	m := s.newMessage(fix.MsgTypeLogon)
	m.Body.Append(fix.NewField(fix.TagEncryptMethod, "0"))
	m.Body.Append(fix.NewField(fix.TagHeartBtInt, strconv.Itoa(int(s.cfg.HeartBtInt/time.Second))))
	if s.cfg.ResetSeqNumOnLogon {
		m.Body.Append(fix.NewField(fix.TagResetSeqNumFlag, "Y"))
	}

	if err := s.send(m, true); err != nil {
		return err
	}

	s.state = StateLogonSent
	s.log.Info().Msg("logon sent")

	return nil
}

// Logout starts the logout handshake.
func (s *Session) Logout(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.newMessage(fix.MsgTypeLogout)
	if text != "" {
		m.Body.Append(fix.NewField(fix.TagText, text))
	}

	if err := s.send(m, true); err != nil {
		return err
	}

	s.state = StateLogoutSent
	s.log.Info().Str("text", text).Msg("logout sent")

	return nil
}

// Send stamps, finalizes and writes an application message built by the
// caller (header MsgType must be set; the session fills the rest).
func (s *Session) Send(m *fix.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.send(m, false)
}

// send assumes the session mutex is held.
func (s *Session) send(m *fix.Message, admin bool) error {
	seq := s.store.NextSenderSeqNum()

	s.stampHeader(m, seq)

	if admin {
		s.app.ToAdmin(s, m)
	} else if err := s.app.ToApp(s, m); err != nil {
		return err
	}

	if err := fix.FinalizeAt(m, s.clock().UTC()); err != nil {
		return err
	}

	raw := fix.Serialize(m)

	if err := s.writer.WriteMessage(raw); err != nil {
		return err
	}

	s.store.SaveMessage(seq, raw)
	s.store.IncrNextSenderSeqNum()
	s.lastSent = s.clock()

	s.log.Debug().Int("seq", seq).Str("msgType", m.MsgType()).Msg("sent")

	return nil
}

func (s *Session) stampHeader(m *fix.Message, seq int) {
	m.Header.SetField(fix.TagBeginString, s.cfg.BeginString)
	m.Header.SetField(fix.TagSenderCompID, s.cfg.SenderCompID)
	m.Header.SetField(fix.TagTargetCompID, s.cfg.TargetCompID)
	m.Header.SetField(fix.TagMsgSeqNum, strconv.Itoa(seq))
	m.Header.SetOrdering([]fix.Tag{
		fix.TagBeginString, fix.TagBodyLength, fix.TagMsgType,
		fix.TagMsgSeqNum, fix.TagSenderCompID, fix.TagSendingTime, fix.TagTargetCompID,
	})
}

func (s *Session) newMessage(msgType string) *fix.Message {
	m := fix.NewMessage()
	m.Header.Append(fix.NewField(fix.TagMsgType, msgType))
	return m
}

// Receive drives the session with one parsed inbound message.
func (s *Session) Receive(m *fix.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastReceived = s.clock()
	msgType := m.MsgType()

	seq, err := inboundSeq(m)
	if err != nil {
		return err
	}

	expected := s.store.NextTargetSeqNum()

	// Sequence resets bypass gap detection.
	if msgType == fix.MsgTypeSequenceReset {
		return s.onSequenceReset(m)
	}

	if seq > expected {
		s.log.Warn().Int("seq", seq).Int("expected", expected).Msg("sequence gap; requesting resend")
		return s.sendResendRequest(expected)
	}

	if seq < expected {
		if possDup, _ := m.Header.Content(fix.TagPossDupFlag); possDup == "Y" {
			s.log.Debug().Int("seq", seq).Msg("possdup below expectation; ignored")
			return nil
		}
		return fmt.Errorf("session: sequence number %d below expected %d", seq, expected)
	}

	s.store.IncrNextTargetSeqNum()

	switch msgType {
	case fix.MsgTypeLogon:
		return s.onLogon(m)
	case fix.MsgTypeHeartbeat:
		return s.onHeartbeat(m)
	case fix.MsgTypeTestRequest:
		return s.onTestRequest(m)
	case fix.MsgTypeResendRequest:
		return s.onResendRequest(m)
	case fix.MsgTypeLogout:
		return s.onLogout(m)
	case fix.MsgTypeReject:
		return s.app.FromAdmin(s, m)
	default:
		return s.app.FromApp(s, m)
	}
}

func inboundSeq(m *fix.Message) (int, error) {
	content, ok := m.Header.Content(fix.TagMsgSeqNum)
	if !ok {
		return 0, fmt.Errorf("session: message without MsgSeqNum")
	}

	seq, err := strconv.Atoi(content)
	if err != nil {
		return 0, fmt.Errorf("session: bad MsgSeqNum %q", content)
	}

	return seq, nil
}

func (s *Session) onLogon(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	if reset, _ := m.Body.Content(fix.TagResetSeqNumFlag); reset == "Y" {
		s.store.SetNextTargetSeqNum(2) // the logon itself was sequence 1
	}

	if s.cfg.Acceptor && s.state != StateActive {
		reply := s.newMessage(fix.MsgTypeLogon)
		reply.Body.Append(fix.NewField(fix.TagEncryptMethod, "0"))
		reply.Body.Append(fix.NewField(fix.TagHeartBtInt, strconv.Itoa(int(s.cfg.HeartBtInt/time.Second))))

		if err := s.send(reply, true); err != nil {
			return err
		}
	}

	s.state = StateActive
	s.log.Info().Msg("logon complete")
	s.app.OnLogon(s)

	return nil
}

func (s *Session) onHeartbeat(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	if s.pendingTestID != "" {
		if id, _ := m.Body.Content(fix.TagTestReqID); id == s.pendingTestID {
			s.pendingTestID = ""
		}
	}

	return nil
}

func (s *Session) onTestRequest(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	reply := s.newMessage(fix.MsgTypeHeartbeat)
	if id, ok := m.Body.Content(fix.TagTestReqID); ok {
		reply.Body.Append(fix.NewField(fix.TagTestReqID, id))
	}

	return s.send(reply, true)
}

func (s *Session) onResendRequest(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	begin, _ := m.Body.Content(fix.TagBeginSeqNo)
	end, _ := m.Body.Content(fix.TagEndSeqNo)

	beginSeq, err := strconv.Atoi(begin)
	if err != nil {
		return fmt.Errorf("session: bad BeginSeqNo %q", begin)
	}

	endSeq, _ := strconv.Atoi(end) // 0 means "to the latest"

	saved := s.store.MessagesInRange(beginSeq, endSeq)
	if len(saved) == 0 {
		return s.sendGapFill(beginSeq, s.store.NextSenderSeqNum())
	}

	for _, raw := range saved {
		if err := s.writer.WriteMessage(raw); err != nil {
			return err
		}
	}

	s.log.Info().Int("begin", beginSeq).Int("end", endSeq).Int("count", len(saved)).Msg("resent")

	return nil
}

// sendGapFill emits a gap-filling SequenceReset so the counterparty skips
// sequences we cannot replay.
func (s *Session) sendGapFill(seq, newSeq int) error {
	m := s.newMessage(fix.MsgTypeSequenceReset)
	m.Header.Append(fix.NewField(fix.TagPossDupFlag, "Y"))
	m.Body.Append(fix.NewField(fix.TagGapFillFlag, "Y"))
	m.Body.Append(fix.NewField(fix.TagNewSeqNo, strconv.Itoa(newSeq)))

	s.stampHeader(m, seq)
	s.app.ToAdmin(s, m)

	if err := fix.FinalizeAt(m, s.clock().UTC()); err != nil {
		return err
	}

	return s.writer.WriteMessage(fix.Serialize(m))
}

func (s *Session) onSequenceReset(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	content, ok := m.Body.Content(fix.TagNewSeqNo)
	if !ok {
		return fmt.Errorf("session: SequenceReset without NewSeqNo")
	}

	newSeq, err := strconv.Atoi(content)
	if err != nil {
		return fmt.Errorf("session: bad NewSeqNo %q", content)
	}

	s.store.SetNextTargetSeqNum(newSeq)
	s.log.Info().Int("newSeq", newSeq).Msg("sequence reset")

	return nil
}

func (s *Session) onLogout(m *fix.Message) error {
	if err := s.app.FromAdmin(s, m); err != nil {
		return err
	}

	if s.state != StateLogoutSent {
		reply := s.newMessage(fix.MsgTypeLogout)
		if err := s.send(reply, true); err != nil {
			return err
		}
	}

	s.state = StateDisconnected
	s.log.Info().Msg("logout complete")
	s.app.OnLogout(s)

	return nil
}

func (s *Session) sendResendRequest(from int) error {
	m := s.newMessage(fix.MsgTypeResendRequest)
	m.Body.Append(fix.NewField(fix.TagBeginSeqNo, strconv.Itoa(from)))
	m.Body.Append(fix.NewField(fix.TagEndSeqNo, "0"))

	return s.send(m, true)
}

// CheckIdle emits a heartbeat when nothing was sent for a full interval and
// a test request when nothing was received for the interval plus a fifth; a
// counterparty silent for twice the interval while a test request is
// outstanding fails the session.
func (s *Session) CheckIdle(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || s.cfg.HeartBtInt <= 0 {
		return nil
	}

	if now.Sub(s.lastSent) >= s.cfg.HeartBtInt {
		hb := s.newMessage(fix.MsgTypeHeartbeat)
		if err := s.send(hb, true); err != nil {
			return err
		}
	}

	silent := now.Sub(s.lastReceived)

	if silent >= 2*s.cfg.HeartBtInt && s.pendingTestID != "" {
		s.state = StateDisconnected
		s.log.Warn().Dur("silent", silent).Msg("counterparty unresponsive")
		s.app.OnLogout(s)
		return fmt.Errorf("session: counterparty unresponsive for %v", silent)
	}

	if silent >= s.cfg.HeartBtInt+s.cfg.HeartBtInt/5 && s.pendingTestID == "" {
		s.pendingTestID = "TEST-" + strconv.FormatInt(now.UnixMilli(), 10)

		tr := s.newMessage(fix.MsgTypeTestRequest)
		tr.Body.Append(fix.NewField(fix.TagTestReqID, s.pendingTestID))

		return s.send(tr, true)
	}

	return nil
}
