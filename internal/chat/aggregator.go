// Package chat folds streamed model output into a conversation transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"

	"facility-intake-backend/internal/metrics"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type Transcript []Entry

// State is where the current send is. A send moves Idle → Sending → Streaming → Settled.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ApologyMessage replaces a model reply whose stream failed.
const ApologyMessage = "I'm sorry, I ran into a problem answering that. Please try again."

var (
	ErrSendInFlight = errors.New("chat: a reply is still streaming")
	ErrEmptyMessage = errors.New("chat: message is empty")
)

// Session is one conversation with the generation service. SendStream yields
// text chunks in arrival order; a non-nil error ends the stream.
type Session interface {
	SendStream(ctx context.Context, message string) iter.Seq2[string, error]
}

// Opener starts a new session with the given system instruction.
type Opener interface {
	OpenSession(ctx context.Context, instruction string) (Session, error)
}

// Update is published after each change to the transcript.
type Update struct {
	Transcript Transcript `json:"transcript"`
	State      State      `json:"state"`
	Chunk      string     `json:"chunk,omitempty"`
}

type Persona struct {
	AssistantName string
	CompanyName   string
}

// Instruction is the system instruction used for a conversation about subject.
func (p Persona) Instruction(subject string) string {
	var b strings.Builder
	name := p.AssistantName
	if name == "" {
		name = "the service assistant"
	}
	fmt.Fprintf(&b, "You are %s", name)
	if p.CompanyName != "" {
		fmt.Fprintf(&b, " for %s", p.CompanyName)
	}
	b.WriteString(". Help property managers describe maintenance and renovation requests clearly and briefly. ")
	b.WriteString("Do not promise prices or dates; the office confirms those after reviewing the request.")
	if s := strings.TrimSpace(subject); s != "" {
		fmt.Fprintf(&b, "\nThe conversation is about the property %q.", s)
	}
	return b.String()
}

// Aggregator owns one transcript. Only one reply can be in flight at a time.
type Aggregator struct {
	opener  Opener
	persona Persona
	logger  *zap.Logger

	mu         sync.Mutex
	subject    string
	generation int
	session    Session
	transcript Transcript
	state      State
}

func NewAggregator(opener Opener, persona Persona, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		opener:  opener,
		persona: persona,
		logger:  logger.With(zap.String("component", "chat")),
	}
}

// SetSubject switches the conversation context. The next send opens a new
// session; a reply already streaming finishes on the old one.
func (a *Aggregator) SetSubject(subject string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if subject == a.subject {
		return
	}
	a.subject = subject
	a.session = nil
	a.generation++
}

func (a *Aggregator) Subject() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.subject
}

func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Aggregator) Transcript() Transcript {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Send appends message and streams the reply into the transcript, calling
// publish after every change. Stream failures end up in the transcript as
// ApologyMessage; the only errors returned are ErrEmptyMessage and ErrSendInFlight.
func (a *Aggregator) Send(ctx context.Context, message string, publish func(Update)) (Transcript, error) {
	if publish == nil {
		publish = func(Update) {}
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	a.mu.Lock()
	if a.state == StateSending || a.state == StateStreaming {
		a.mu.Unlock()
		return nil, ErrSendInFlight
	}
	a.state = StateSending
	session, subject, generation := a.session, a.subject, a.generation
	a.transcript = append(a.transcript, Entry{Role: RoleUser, Text: message}, Entry{Role: RoleModel})
	tail := len(a.transcript) - 1
	a.state = StateStreaming
	snap := a.snapshotLocked()
	a.mu.Unlock()
	publish(Update{Transcript: snap, State: StateStreaming})

	chunks := 0
	defer func() {
		if r := recover(); r != nil {
			if a.State() == StateStreaming {
				a.fail(tail, chunks, fmt.Errorf("chat stream panicked: %v", r), publish)
			}
			panic(r)
		}
	}()

	if session == nil {
		var err error
		session, err = a.opener.OpenSession(ctx, a.persona.Instruction(subject))
		if err != nil {
			return a.fail(tail, 0, err, publish), nil
		}
		a.mu.Lock()
		if a.generation == generation {
			a.session = session
		}
		a.mu.Unlock()
	}

	for chunk, err := range session.SendStream(ctx, message) {
		if err != nil {
			return a.fail(tail, chunks, err, publish), nil
		}
		if chunk == "" {
			continue
		}
		chunks++
		a.mu.Lock()
		a.transcript[tail].Text += chunk
		snap = a.snapshotLocked()
		a.mu.Unlock()
		publish(Update{Transcript: snap, State: StateStreaming, Chunk: chunk})
	}

	a.mu.Lock()
	a.state = StateSettled
	snap = a.snapshotLocked()
	a.mu.Unlock()
	metrics.ObserveChatStream(false, chunks)
	publish(Update{Transcript: snap, State: StateSettled})
	return snap, nil
}

func (a *Aggregator) fail(tail, chunks int, err error, publish func(Update)) Transcript {
	a.logger.Warn("chat stream failed", zap.Int("chunks", chunks), zap.Error(err))
	a.mu.Lock()
	a.transcript[tail].Text = ApologyMessage
	a.state = StateSettled
	snap := a.snapshotLocked()
	a.mu.Unlock()
	metrics.ObserveChatStream(true, chunks)
	publish(Update{Transcript: snap, State: StateSettled})
	return snap
}

func (a *Aggregator) snapshotLocked() Transcript {
	out := make(Transcript, len(a.transcript))
	copy(out, a.transcript)
	return out
}
