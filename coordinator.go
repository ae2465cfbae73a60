package dailytasks

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultStatusWindow is how long Synced is shown before the status goes back to Idle.
const DefaultStatusWindow = 2 * time.Second

// Remote is a document store holding one Document. *Client implements it.
type Remote interface {
	Pull(ctx context.Context) (*Document, error)
	Push(ctx context.Context, doc Document) error
}

type CoordinatorOption func(*Coordinator)

// WithRemoteFactory replaces the function creating a Remote from credentials; by default a *Client is created.
func WithRemoteFactory(fn func(Credentials) (Remote, error)) CoordinatorOption {
	return func(c *Coordinator) {
		c.newRemote = fn
	}
}

// WithClientOptions passes options to NewClient when the default remote factory is used.
func WithClientOptions(opts ...ClientOption) CoordinatorOption {
	return func(c *Coordinator) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithStatusWindow sets how long Synced is displayed. Zero or less means it stays until the next change.
func WithStatusWindow(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.statusWindow = d
	}
}

// WithStatusListener registers fn to be called on every status change. It is called with the coordinator's
// lock held, so it must not call back into the Coordinator.
func WithStatusListener(fn func(Status)) CoordinatorOption {
	return func(c *Coordinator) {
		c.listener = fn
	}
}

// Coordinator keeps the State, the local Store and the remote document in step.
//
// Every change to the State is saved locally before anything else happens and, if credentials are configured,
// scheduled for pushing. Remote calls are made one at a time by a worker goroutine, so they never block the
// caller. Changes made while a remote call is in flight are coalesced: only the latest snapshot is kept, and
// it's pushed as soon as the worker is free. Pulls happen on Start and when credentials change; a pulled
// document replaces the State entirely, unless the State was changed while the pull was in flight or a change
// was still waiting to be pushed: the local change is the later write, so it is pushed instead. Conflicts
// between devices are resolved by the last push winning.
//
// Once the remote refuses the token with ErrUnauthorized, no more remote calls are made and the status stays
// Failed until new credentials are set. Changes are still saved locally, and the latest is pushed then.
type Coordinator struct {
	state        *State
	store        *Store
	newRemote    func(Credentials) (Remote, error)
	clientOpts   []ClientOption
	statusWindow time.Duration
	listener     func(Status)

	mu         sync.Mutex
	idle       *sync.Cond
	ctx        context.Context
	creds      Credentials
	remote     Remote // Nil when sync is disabled.
	loading    bool
	rejected   bool      // The token was refused; nothing is sent until credentials change.
	busy       bool      // The worker goroutine is running.
	pullWanted bool      // Takes precedence over pending.
	pending    *Document // Latest snapshot not yet pushed.
	status     Status
	statusGen  int
}

// NewCoordinator creates a coordinator and subscribes it to state changes. Call Start before making any change.
func NewCoordinator(state *State, store *Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		state:        state,
		store:        store,
		statusWindow: DefaultStatusWindow,
		ctx:          context.Background(),
	}
	c.idle = sync.NewCond(&c.mu)
	c.newRemote = func(creds Credentials) (Remote, error) {
		return NewClient(creds, c.clientOpts...)
	}
	for _, opt := range opts {
		opt(c)
	}
	state.Subscribe(c.onChange)
	return c
}

// Start populates the State from the local store and, if credentials were saved, starts pulling the remote
// document. It doesn't wait for the pull; use Wait for that. Corrupt local data is logged and replaced by
// defaults in memory (the stored data is left alone until the next change). The context is used for all
// remote calls made by the coordinator from now on.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.loading = true
	c.mu.Unlock()

	doc, outcome, err := c.store.LoadDocument()
	if outcome == Corrupt {
		log.WithField("cause", err).Warning("Could not load local data, starting from an empty list")
	}
	c.state.ReplaceAll(doc.Tasks, doc.WeeklyFocus)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()

	creds, outcome, err := c.store.LoadCredentials()
	if outcome == Corrupt {
		log.WithField("cause", err).Warning("Could not load sync credentials, sync disabled")
	}
	return c.configure(creds)
}

// SetCredentials saves new credentials and, if they're complete, pulls the remote document as on Start.
// Incomplete credentials disable sync.
func (c *Coordinator) SetCredentials(creds Credentials) error {
	if err := c.store.SaveCredentials(creds); err != nil {
		return err
	}
	return c.configure(creds)
}

// ClearCredentials disables sync.
func (c *Coordinator) ClearCredentials() error {
	return c.SetCredentials(Credentials{})
}

func (c *Coordinator) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// Enabled tells whether changes are being mirrored remotely.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote != nil
}

// Sync schedules a pull, as done on Start. It's a no-op if sync is disabled.
func (c *Coordinator) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return
	}
	c.pullWanted = true
	c.kick()
}

func (c *Coordinator) configure(creds Credentials) error {
	var remote Remote
	if creds.Complete() {
		var err error
		if remote, err = c.newRemote(creds); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
	c.remote = remote
	c.rejected = false
	if remote == nil {
		c.pullWanted = false
		c.pending = nil
		c.setStatus(Idle)
		return nil
	}
	c.pullWanted = true
	c.kick()
	return nil
}

// Status returns the current sync status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Wait blocks until there are no remote operations in flight or pending.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	for c.busy {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// onChange is subscribed to the State; it runs with the state's lock held.
func (c *Coordinator) onChange(doc Document) {
	c.mu.Lock()
	loading := c.loading
	c.mu.Unlock()
	if loading {
		return
	}
	if err := c.store.SaveDocument(doc); err != nil {
		log.WithField("cause", err).Error("Could not save locally")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return
	}
	c.pending = &doc
	c.kick()
}

// kick starts the worker if there's work and it isn't running. Must be called with c.mu held.
func (c *Coordinator) kick() {
	if c.busy || c.remote == nil || c.rejected {
		return
	}
	if !c.pullWanted && c.pending == nil {
		return
	}
	c.busy = true
	go c.work()
}

func (c *Coordinator) work() {
	for {
		c.mu.Lock()
		remote := c.remote
		if remote == nil || c.rejected || (!c.pullWanted && c.pending == nil) {
			c.busy = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		ctx := c.ctx
		c.setStatus(Syncing)
		if c.pullWanted {
			c.pullWanted = false
			c.mu.Unlock()
			c.pull(ctx, remote)
			continue
		}
		doc := *c.pending
		c.pending = nil
		c.mu.Unlock()
		c.push(ctx, remote, doc)
	}
}

// pull replaces the State with the remote document, unless a change is waiting to be pushed or the State
// changes while the pull is in flight. In both cases the pending push carries the local changes.
func (c *Coordinator) pull(ctx context.Context, remote Remote) {
	// Read the version first: changes made before it are in c.pending by now, later ones bump it.
	version := c.state.currentVersion()
	c.mu.Lock()
	unpushed := c.pending != nil
	c.mu.Unlock()
	doc, err := remote.Pull(ctx)
	switch {
	case err == nil:
		// The state's notification saves the document locally and leaves it as the pending push.
		replaced := !unpushed && c.state.replaceAllAt(version, doc.Tasks, doc.WeeklyFocus)
		c.mu.Lock()
		if !replaced {
			log.Info("Local changes made during pull, keeping local data")
		} else if c.pending != nil && sameDocument(*c.pending, *doc) {
			c.pending = nil
		}
		c.settle(Synced)
		c.mu.Unlock()
	case errors.Is(err, ErrNotFound):
		log.WithField("cause", err).Info("Nothing to pull, keeping local data")
		c.mu.Lock()
		c.settle(Synced)
		c.mu.Unlock()
	case errors.Is(err, ErrInvalidDocument):
		log.WithField("cause", err).Warning("Remote document is not valid, keeping local data")
		c.mu.Lock()
		c.settle(Synced)
		c.mu.Unlock()
	default:
		c.mu.Lock()
		c.fail("pull", err)
		c.mu.Unlock()
	}
}

func (c *Coordinator) push(ctx context.Context, remote Remote, doc Document) {
	err := remote.Push(ctx, doc)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail("push", err)
		return
	}
	c.settle(Synced)
}

// fail must be called with c.mu held. A refused token stops the worker; other failures are reported only if
// no more work is queued.
func (c *Coordinator) fail(op string, err error) {
	log.WithFields(log.Fields{
		"op":    op,
		"cause": err,
	}).Error("Sync failed")
	if errors.Is(err, ErrUnauthorized) {
		c.rejected = true
		c.setStatus(Failed)
		return
	}
	if c.pending == nil && !c.pullWanted {
		c.setStatus(Failed)
	}
}

// settle sets the status, unless more work is queued, in which case the status stays Syncing.
func (c *Coordinator) settle(s Status) {
	if c.pending != nil || c.pullWanted {
		return
	}
	c.setStatus(s)
}

// setStatus must be called with c.mu held.
func (c *Coordinator) setStatus(s Status) {
	c.statusGen++
	if c.status != s {
		c.status = s
		if c.listener != nil {
			c.listener(s)
		}
	}
	if s != Synced || c.statusWindow <= 0 {
		return
	}
	gen := c.statusGen
	time.AfterFunc(c.statusWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.statusGen == gen {
			c.setStatus(Idle)
		}
	})
}

func sameDocument(a, b Document) bool {
	if a.WeeklyFocus != b.WeeklyFocus || len(a.Tasks) != len(b.Tasks) {
		return false
	}
	for i := range a.Tasks {
		if a.Tasks[i] != b.Tasks[i] {
			return false
		}
	}
	return true
}
