package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/agendabot/internal/calendar"
	"github.com/teemow/agendabot/internal/intent"
	"github.com/teemow/agendabot/internal/session"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	getErr   error
	saveErr  error
}

func newFakeStore(sessions ...*session.Session) *fakeStore {
	s := &fakeStore{sessions: make(map[string]*session.Session)}
	for _, sess := range sessions {
		s.sessions[sess.UserID] = sess
	}
	return s
}

func (s *fakeStore) GetSession(_ context.Context, userID string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeStore) SaveLastEventID(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session.Session{UserID: userID}
		s.sessions[userID] = sess
	}
	sess.LastEventID = eventID
	return nil
}

func (s *fakeStore) lastEventID(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.LastEventID
	}
	return ""
}

type resolveCall struct {
	text string
	mc   *intent.MergeContext
}

type fakeResolver struct {
	mu      sync.Mutex
	results []intent.Result
	calls   []resolveCall
}

func (r *fakeResolver) Resolve(_ context.Context, text string, mc *intent.MergeContext) intent.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := len(r.calls)
	r.calls = append(r.calls, resolveCall{text: text, mc: mc})
	if i < len(r.results) {
		return r.results[i]
	}
	return intent.Result{Intent: intent.IntentError, Action: &intent.Failed{Err: errors.New("no scripted result")}}
}

type gatewayCall struct {
	op         string
	credential string
	eventID    string
	details    calendar.EventDetails
	window     calendar.QueryWindow
	limit      int
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall

	created *calendar.Event
	patched *calendar.Event
	got     *calendar.Event
	listed  []calendar.Event

	createErr, patchErr, deleteErr, listErr, getErr error
	panicOn                                         string
}

func (g *fakeGateway) record(c gatewayCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	if g.panicOn == c.op {
		panic("gateway exploded")
	}
}

func (g *fakeGateway) ops() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ops := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		ops = append(ops, c.op)
	}
	return ops
}

func (g *fakeGateway) Create(_ context.Context, credential string, details calendar.EventDetails) (*calendar.Event, error) {
	g.record(gatewayCall{op: "create", credential: credential, details: details})
	return g.created, g.createErr
}

func (g *fakeGateway) Patch(_ context.Context, credential, eventID string, details calendar.EventDetails) (*calendar.Event, error) {
	g.record(gatewayCall{op: "patch", credential: credential, eventID: eventID, details: details})
	return g.patched, g.patchErr
}

func (g *fakeGateway) Delete(_ context.Context, credential, eventID string) error {
	g.record(gatewayCall{op: "delete", credential: credential, eventID: eventID})
	return g.deleteErr
}

func (g *fakeGateway) List(_ context.Context, credential string, window calendar.QueryWindow, limit int) ([]calendar.Event, error) {
	g.record(gatewayCall{op: "list", credential: credential, window: window, limit: limit})
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.listed, nil
}

func (g *fakeGateway) Get(_ context.Context, credential, eventID string) (*calendar.Event, error) {
	g.record(gatewayCall{op: "get", credential: credential, eventID: eventID})
	return g.got, g.getErr
}

type sentMessage struct {
	to   string
	text string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentMessage
	err    error
	panics bool
}

func (n *fakeNotifier) Send(_ context.Context, to, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to: to, text: text})
	if n.panics {
		panic("nil pointer dereference in sdk")
	}
	return n.err
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}
