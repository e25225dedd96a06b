package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	res *Result
	err error
}

func start(ctx context.Context, c *Controller, s *Session) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		res, err := c.Run(ctx, s)
		done <- runResult{res, err}
	}()
	return done
}

func awaitRef(t *testing.T, g *fakeGateway) domain.MessageRef {
	t.Helper()
	select {
	case ref := <-g.ready:
		return ref
	case <-time.After(time.Second):
		t.Fatal("session never subscribed")
		return domain.MessageRef{}
	}
}

func awaitDone(t *testing.T, done <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
		return runResult{}
	}
}

func waitResolved(t *testing.T, ack *domain.Ack) {
	t.Helper()
	require.Eventually(t, ack.Resolved, time.Second, time.Millisecond, "ack was never resolved")
}

func TestController_FullDialogue(t *testing.T) {
	g := newFakeGateway()
	var phases []domain.Phase
	var appended []domain.Field
	var ended *domain.SessionEvent
	hooks := domain.LifecycleHooks{
		OnPhaseEnter:    func(_ context.Context, e *domain.SessionEvent) { phases = append(phases, e.Phase) },
		OnFieldAppended: func(_ context.Context, e *domain.SessionEvent) { appended = append(appended, *e.Field) },
		OnSessionEnd:    func(_ context.Context, e *domain.SessionEvent) { ended = e },
	}
	c := NewController(g, WithTitleTimeout(time.Second), WithLifecycleHooks(hooks))
	s := c.NewSession(trigger("t1"))
	done := start(context.Background(), c, s)

	ref := awaitRef(t, g)
	sub := g.sub(ref)

	setTitle := g.button(domain.ControlSetTitle)
	sub.buttons <- setTitle
	waitResolved(t, setTitle.Ack)

	title := g.form(domain.FormTitle, "My Title")
	sub.forms <- title
	waitResolved(t, title.Ack)

	add := g.button(domain.ControlAddField)
	sub.buttons <- add
	waitResolved(t, add.Ack)

	field := g.form(domain.FormField, "Stat", "42")
	sub.forms <- field
	waitResolved(t, field.Ack)

	finish := g.button(domain.ControlDone)
	sub.buttons <- finish

	r := awaitDone(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, domain.OutcomeCompleted, r.res.Outcome)
	assert.Equal(t, ref, r.res.Ref)
	assert.Equal(t, "My Title", r.res.Embed.Title)
	assert.Equal(t, []domain.Field{{Name: "Stat", Value: "42"}}, r.res.Embed.Fields)
	assert.True(t, finish.Ack.Resolved())

	assert.Equal(t, []string{"send", "edit", "form", "defer", "edit", "form", "update", "update"}, g.rec.kinds())

	ops := g.rec.all()
	assert.Equal(t, PromptView(true), ops[0].View)
	assert.Empty(t, ops[1].View.Buttons, "title button is removed once clicked")
	assert.Equal(t, domain.FormTitle, ops[2].Form.ID)
	assert.Equal(t, domain.FormField, ops[5].Form.ID)

	editing := ops[4].View
	require.NotNil(t, editing.Embed)
	assert.Equal(t, domain.TextEditing, editing.Content)
	assert.Equal(t, "My Title", editing.Embed.Title)
	assert.Empty(t, editing.Embed.Fields)
	require.Len(t, editing.Buttons, 2)
	assert.Equal(t, domain.ControlAddField, editing.Buttons[0].ID)
	assert.Equal(t, domain.ControlDone, editing.Buttons[1].ID)

	assert.Len(t, ops[6].View.Embed.Fields, 1)

	final := ops[7].View
	assert.Equal(t, "", final.Content)
	assert.Empty(t, final.Buttons)
	require.NotNil(t, final.Embed)
	assert.Equal(t, "My Title", final.Embed.Title)
	assert.Equal(t, []domain.Field{{Name: "Stat", Value: "42"}}, final.Embed.Fields)

	assert.Equal(t, []domain.Phase{
		domain.PhaseAwaitingTitleButton,
		domain.PhaseAwaitingTitleForm,
		domain.PhaseEditing,
		domain.PhaseTerminated,
	}, phases)
	assert.Equal(t, []domain.Field{{Name: "Stat", Value: "42"}}, appended)
	require.NotNil(t, ended)
	assert.Equal(t, domain.OutcomeCompleted, ended.Outcome)
	assert.NoError(t, ended.Err)

	select {
	case <-sub.closed:
	default:
		t.Error("subscription was not closed")
	}
}

func TestController_DoneWithoutFields(t *testing.T) {
	g := newFakeGateway()
	c := NewController(g)
	done := start(context.Background(), c, c.NewSession(trigger("t1")))

	sub := g.sub(awaitRef(t, g))
	b := g.button(domain.ControlSetTitle)
	sub.buttons <- b
	waitResolved(t, b.Ack)
	f := g.form(domain.FormTitle, "Only a title")
	sub.forms <- f
	waitResolved(t, f.Ack)
	sub.buttons <- g.button(domain.ControlDone)

	r := awaitDone(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "Only a title", r.res.Embed.Title)
	assert.NotNil(t, r.res.Embed.Fields)
	assert.Empty(t, r.res.Embed.Fields)
}

func TestController_TitleTimeout(t *testing.T) {
	g := newFakeGateway()
	var ended *domain.SessionEvent
	c := NewController(g,
		WithTitleTimeout(20*time.Millisecond),
		WithLifecycleHooks(domain.LifecycleHooks{
			OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) { ended = e },
		}),
	)
	s := c.NewSession(trigger("t1"))
	done := start(context.Background(), c, s)

	sub := g.sub(awaitRef(t, g))
	sub.buttons <- g.button(domain.ControlSetTitle)

	r := awaitDone(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, domain.OutcomeTimedOut, r.res.Outcome)
	assert.Equal(t, domain.PhaseTerminated, s.Phase())

	assert.Equal(t, []string{"send", "edit", "form", "reply"}, g.rec.kinds())
	ops := g.rec.all()
	assert.Equal(t, domain.TextTimedOut, ops[3].Content)

	_, titled := s.doc.Title()
	assert.False(t, titled)
	require.NotNil(t, ended)
	assert.Equal(t, domain.OutcomeTimedOut, ended.Outcome)
}

func TestController_QueuedFieldForms(t *testing.T) {
	g := newFakeGateway()
	c := NewController(g)
	done := start(context.Background(), c, c.NewSession(trigger("t1")))

	sub := g.sub(awaitRef(t, g))
	b := g.button(domain.ControlSetTitle)
	sub.buttons <- b
	waitResolved(t, b.Ack)
	f := g.form(domain.FormTitle, "T")
	sub.forms <- f
	waitResolved(t, f.Ack)

	// Two field forms opened before either was submitted.
	a1 := g.button(domain.ControlAddField)
	sub.buttons <- a1
	waitResolved(t, a1.Ack)
	a2 := g.button(domain.ControlAddField)
	sub.buttons <- a2
	waitResolved(t, a2.Ack)

	first := g.form(domain.FormField, "A", "1")
	second := g.form(domain.FormField, "B", "2")
	sub.forms <- first
	sub.forms <- second
	waitResolved(t, second.Ack)

	sub.buttons <- g.button(domain.ControlDone)
	r := awaitDone(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, []domain.Field{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, r.res.Embed.Fields)
	assert.True(t, first.Ack.Resolved())
}

func TestController_RepeatedTitleClick(t *testing.T) {
	t.Run("Queued Before The Button Is Removed", func(t *testing.T) {
		g := newFakeGateway()
		first := g.button(domain.ControlSetTitle)
		second := g.button(domain.ControlSetTitle)
		g.queued = []domain.ButtonActivated{first, second}
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		waitResolved(t, first.Ack)
		waitResolved(t, second.Ack)

		f := g.form(domain.FormTitle, "T")
		sub.forms <- f
		waitResolved(t, f.Ack)
		sub.buttons <- g.button(domain.ControlDone)

		r := awaitDone(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, domain.OutcomeCompleted, r.res.Outcome)
		assert.Equal(t, "T", r.res.Embed.Title)
		// The second click is answered right after the title form opens.
		assert.Equal(t, []string{"send", "edit", "form", "defer", "defer", "edit", "update"}, g.rec.kinds())
	})

	t.Run("Arriving While Editing", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		b := g.button(domain.ControlSetTitle)
		sub.buttons <- b
		waitResolved(t, b.Ack)
		f := g.form(domain.FormTitle, "T")
		sub.forms <- f
		waitResolved(t, f.Ack)

		late := g.button(domain.ControlSetTitle)
		sub.buttons <- late
		waitResolved(t, late.Ack)
		sub.buttons <- g.button(domain.ControlDone)

		r := awaitDone(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, domain.OutcomeCompleted, r.res.Outcome)
		assert.Equal(t, []string{"send", "edit", "form", "defer", "edit", "defer", "update"}, g.rec.kinds())
	})

	t.Run("Other Control Queued Before Title Form", func(t *testing.T) {
		g := newFakeGateway()
		g.queued = []domain.ButtonActivated{g.button(domain.ControlSetTitle), g.button(domain.ControlDone)}
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))
		awaitRef(t, g)

		r := awaitDone(t, done)
		require.Error(t, r.err)
		assert.ErrorIs(t, r.err, domain.ErrProtocolViolation)
	})
}

func TestController_ProtocolViolation(t *testing.T) {
	t.Run("Wrong Button Before Title", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		sub.buttons <- g.button(domain.ControlDone)

		r := awaitDone(t, done)
		require.ErrorIs(t, r.err, domain.ErrProtocolViolation)
		var pv *domain.ProtocolViolationError
		require.True(t, errors.As(r.err, &pv))
		assert.Equal(t, domain.PhaseAwaitingTitleButton, pv.Phase)
		assert.Equal(t, domain.ControlDone, pv.Got)
		assert.Equal(t, domain.OutcomeFailed, r.res.Outcome)
	})

	t.Run("Field Form As Title", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		b := g.button(domain.ControlSetTitle)
		sub.buttons <- b
		waitResolved(t, b.Ack)
		sub.forms <- g.form(domain.FormField, "x", "y")

		r := awaitDone(t, done)
		var pv *domain.ProtocolViolationError
		require.True(t, errors.As(r.err, &pv))
		assert.Equal(t, domain.PhaseAwaitingTitleForm, pv.Phase)
		assert.Equal(t, "form", pv.Kind)
	})

	t.Run("Unknown Control While Editing", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		b := g.button(domain.ControlSetTitle)
		sub.buttons <- b
		waitResolved(t, b.Ack)
		f := g.form(domain.FormTitle, "T")
		sub.forms <- f
		waitResolved(t, f.Ack)
		sub.buttons <- g.button("launch_rockets")

		r := awaitDone(t, done)
		var pv *domain.ProtocolViolationError
		require.True(t, errors.As(r.err, &pv))
		assert.Equal(t, domain.PhaseEditing, pv.Phase)
		assert.Equal(t, "launch_rockets", pv.Got)
	})

	t.Run("Missing Form Values", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		b := g.button(domain.ControlSetTitle)
		sub.buttons <- b
		waitResolved(t, b.Ack)
		sub.forms <- g.form(domain.FormTitle)

		r := awaitDone(t, done)
		assert.ErrorIs(t, r.err, domain.ErrProtocolViolation)
	})
}

func TestController_GatewayFailures(t *testing.T) {
	boom := errors.New("platform unavailable")

	t.Run("Send", func(t *testing.T) {
		g := newFakeGateway()
		g.sendErr = boom
		c := NewController(g)
		r := awaitDone(t, start(context.Background(), c, c.NewSession(trigger("t1"))))
		require.ErrorIs(t, r.err, boom)
		assert.Equal(t, domain.OutcomeFailed, r.res.Outcome)
		assert.Empty(t, g.ready)
	})

	t.Run("Ack", func(t *testing.T) {
		g := newFakeGateway()
		c := NewController(g)
		done := start(context.Background(), c, c.NewSession(trigger("t1")))

		sub := g.sub(awaitRef(t, g))
		b := domain.ButtonActivated{
			ControlID: domain.ControlSetTitle,
			Ack:       domain.NewAck(&fakeResponder{rec: g.rec, err: boom}),
		}
		sub.buttons <- b

		r := awaitDone(t, done)
		require.ErrorIs(t, r.err, boom)
		assert.Equal(t, domain.OutcomeFailed, r.res.Outcome)
	})
}

func TestController_Cancellation(t *testing.T) {
	g := newFakeGateway()
	var ended *domain.SessionEvent
	c := NewController(g, WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) { ended = e },
	}))
	ctx, cancel := context.WithCancel(context.Background())
	s := c.NewSession(trigger("t1"))
	done := start(ctx, c, s)

	awaitRef(t, g)
	cancel()

	r := awaitDone(t, done)
	require.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, domain.OutcomeCancelled, r.res.Outcome)
	assert.Equal(t, domain.PhaseTerminated, s.Phase())
	require.NotNil(t, ended)
	assert.Equal(t, domain.OutcomeCancelled, ended.Outcome)
}

func TestController_Archive(t *testing.T) {
	completeDialogue := func(t *testing.T, g *fakeGateway) {
		sub := g.sub(awaitRef(t, g))
		b := g.button(domain.ControlSetTitle)
		sub.buttons <- b
		waitResolved(t, b.Ack)
		f := g.form(domain.FormTitle, "Archived")
		sub.forms <- f
		waitResolved(t, f.Ack)
		a := g.button(domain.ControlAddField)
		sub.buttons <- a
		waitResolved(t, a.Ack)
		ff := g.form(domain.FormField, "k", "v")
		sub.forms <- ff
		waitResolved(t, ff.Ack)
		sub.buttons <- g.button(domain.ControlDone)
	}

	t.Run("Saves Completed Document", func(t *testing.T) {
		g := newFakeGateway()
		store := memory.NewDocumentStore()
		ids := []string{"session-1", "doc-1"}
		var mu sync.Mutex
		c := NewController(g, WithArchive(store), WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			id := ids[0]
			ids = ids[1:]
			return id
		}))
		done := start(context.Background(), c, c.NewSession(trigger("t1")))
		completeDialogue(t, g)

		r := awaitDone(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, "doc-1", r.res.DocumentID)

		rec, err := store.Load(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "session-1", rec.SessionID)
		assert.Equal(t, "author-1", rec.AuthorID)
		assert.Equal(t, r.res.Embed, rec.Embed)
	})

	t.Run("Failure Is Not Fatal", func(t *testing.T) {
		g := newFakeGateway()
		store := new(mockStore)
		store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		c := NewController(g, WithArchive(store))
		done := start(context.Background(), c, c.NewSession(trigger("t1")))
		completeDialogue(t, g)

		r := awaitDone(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, domain.OutcomeCompleted, r.res.Outcome)
		assert.Empty(t, r.res.DocumentID)
		store.AssertExpectations(t)
	})

	t.Run("Timed Out Is Not Saved", func(t *testing.T) {
		g := newFakeGateway()
		store := new(mockStore)
		c := NewController(g, WithArchive(store), WithTitleTimeout(10*time.Millisecond))
		done := start(context.Background(), c, c.NewSession(trigger("t1")))
		g.sub(awaitRef(t, g)).buttons <- g.button(domain.ControlSetTitle)

		r := awaitDone(t, done)
		require.NoError(t, r.err)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, rec domain.DocumentRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockStore) Load(ctx context.Context, id string) (domain.DocumentRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.DocumentRecord), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
