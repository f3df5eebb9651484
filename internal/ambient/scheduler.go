// Package ambient decides when the assistant speaks without being asked.
// A scheduler fuses transcripts and periodic vision summaries into a
// sensor context, runs each transcript through an ordered rule table,
// and fires probabilistic interjections through a host callback —
// throttled by a cooldown and scaled by a "friend threshold" that sets
// how chatty the assistant is allowed to be.
package ambient

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
)

const (
	// MinInterjectionInterval is the floor between unprompted utterances.
	MinInterjectionInterval = 30 * time.Second
	// BusyInterjectionInterval replaces it while the user seems busy.
	BusyInterjectionInterval = 5 * time.Minute

	// baseProbabilityFactor scales friend_threshold into the base fire
	// chance before any rule boost.
	baseProbabilityFactor = 0.3
	// busyDampening multiplies the final probability when busy.
	busyDampening = 0.3

	DefaultTickInterval       = time.Second
	DefaultScreenshotInterval = 60 * time.Second
	DefaultCameraInterval     = 45 * time.Second

	// Vision probes only run once the threshold clears these floors.
	screenProbeMinThreshold = 0.3
	cameraProbeMinThreshold = 0.4

	// Long-silence check-ins.
	longSilenceThreshold = 5 * time.Minute
	silenceMinThreshold  = 0.6
	silenceCheckInChance = 0.1
)

// Event is handed to the host callback when an interjection fires. The
// host is expected to turn it into speech and enqueue it.
type Event struct {
	Reason       Reason    `json:"reason"`
	Hint         string    `json:"hint"`
	RecentSpeech string    `json:"recent_speech"`
	UserActivity string    `json:"user_activity"`
	UserMood     string    `json:"user_mood"`
	UserBusy     bool      `json:"user_busy"`
	At           time.Time `json:"-"`
}

// Status is a diagnostic snapshot of the scheduler.
type Status struct {
	Running           bool          `json:"running"`
	FriendThreshold   float64       `json:"friend_threshold"`
	UserActivity      string        `json:"user_activity"`
	UserMood          string        `json:"user_mood"`
	UserBusy          bool          `json:"user_busy"`
	SilenceDuration   time.Duration `json:"silence_duration"`
	InterjectionCount int           `json:"interjection_count"`
	SinceLast         time.Duration `json:"since_last_interjection"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithVision installs camera/screen probes for the background tick.
func WithVision(probe domain.VisionProbe) Option {
	return func(s *Scheduler) { s.vision = probe }
}

// WithCooldown overrides the normal interjection spacing.
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.cooldown = d }
}

// WithBusyCooldown overrides the spacing used while the user is busy.
func WithBusyCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.busyCooldown = d }
}

// WithTickInterval overrides the background tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

// WithProbeIntervals overrides how often screen and camera are probed.
func WithProbeIntervals(screen, camera time.Duration) Option {
	return func(s *Scheduler) {
		s.screenInterval = screen
		s.cameraInterval = camera
	}
}

// WithRand injects the probability source for tests.
func WithRand(fn func() float64) Option {
	return func(s *Scheduler) { s.randFn = fn }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = now }
}

// Scheduler is the ambient interjection engine. All mutable state sits
// behind one mutex; the host callback always runs with the mutex
// released so it can call back into the scheduler or the speech queue.
type Scheduler struct {
	log    *logger.Logger
	vision domain.VisionProbe

	cooldown       time.Duration
	busyCooldown   time.Duration
	tick           time.Duration
	screenInterval time.Duration
	cameraInterval time.Duration
	randFn         func() float64
	clock          func() time.Time

	mu               sync.Mutex
	ctx              SensorContext
	friend           float64
	running          bool
	onInterject      func(Event)
	lastInterjection time.Time
	count            int
	lastScreenProbe  time.Time
	lastCameraProbe  time.Time
	cancel           context.CancelFunc
	done             chan struct{}
}

// NewScheduler creates a stopped scheduler with the given friend
// threshold (clamped to [0,1]).
func NewScheduler(friendThreshold float64, log *logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:            log,
		cooldown:       MinInterjectionInterval,
		busyCooldown:   BusyInterjectionInterval,
		tick:           DefaultTickInterval,
		screenInterval: DefaultScreenshotInterval,
		cameraInterval: DefaultCameraInterval,
		randFn:         rand.Float64,
		clock:          time.Now,
		friend:         clamp01(friendThreshold),
		ctx:            newSensorContext(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) rand() float64 { return s.randFn() }

// Start launches the background tick loop and registers the host
// callback. Returns ErrAlreadyRunning if already started.
func (s *Scheduler) Start(ctx context.Context, onInterject func(Event)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	s.running = true
	s.onInterject = onInterject
	s.ctx = newSensorContext()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	s.log.Info("ambient: scheduler started (friend_threshold=%.2f)", s.FriendThreshold())
	return nil
}

// Stop halts the tick loop. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("ambient: scheduler stopped")
}

// SetFriendThreshold adjusts chattiness at runtime, clamped to [0,1].
func (s *Scheduler) SetFriendThreshold(v float64) {
	s.mu.Lock()
	s.friend = clamp01(v)
	s.mu.Unlock()
	s.log.Info("ambient: friend threshold set to %.2f", clamp01(v))
}

// FriendThreshold returns the current chattiness setting.
func (s *Scheduler) FriendThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friend
}

// Status returns a diagnostic snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var since time.Duration
	if !s.lastInterjection.IsZero() {
		since = s.clock().Sub(s.lastInterjection)
	}
	return Status{
		Running:           s.running,
		FriendThreshold:   s.friend,
		UserActivity:      s.ctx.UserActivity,
		UserMood:          s.ctx.Sentiment,
		UserBusy:          s.ctx.UserSeemsBusy,
		SilenceDuration:   s.ctx.SilenceDuration,
		InterjectionCount: s.count,
		SinceLast:         since,
	}
}

// UpdateAudioContext feeds one recognized transcript into the context
// and immediately evaluates the trigger rules against it.
func (s *Scheduler) UpdateAudioContext(transcript string) {
	if strings.TrimSpace(transcript) == "" {
		return
	}

	s.mu.Lock()
	s.ctx.addTranscript(transcript, s.clock())
	ev := s.evaluateLocked(transcript)
	s.mu.Unlock()

	s.deliver(ev)
}

// UpdateVisualContext feeds camera and/or screen descriptions into the
// context. Either argument may be empty.
func (s *Scheduler) UpdateVisualContext(cameraText, screenText string) {
	s.mu.Lock()
	s.ctx.applyCamera(cameraText)
	s.ctx.applyScreen(screenText)
	s.mu.Unlock()
}

// evaluateLocked runs the ordered rule table against one transcript and
// decides fire/no-fire. Caller holds mu; a non-nil Event must be
// delivered after unlocking.
func (s *Scheduler) evaluateLocked(transcript string) *Event {
	// Threshold zero means never speak unprompted, full stop.
	if s.friend <= 0 {
		return nil
	}
	if !s.cooldownClearLocked() {
		return nil
	}

	lower := strings.ToLower(transcript)
	for _, rule := range triggerRules {
		m, ok := rule.eval(s, transcript, lower)
		if !ok {
			continue
		}

		probability := clamp01(s.friend*baseProbabilityFactor + m.boost)
		if s.ctx.UserSeemsBusy {
			probability *= busyDampening
		}
		s.log.Debug("ambient: rule %s matched (reason=%s, p=%.2f)", rule.name, m.reason, probability)

		if s.rand() < probability {
			return s.fireLocked(m.reason, m.hint, transcript)
		}
		return nil
	}
	return nil
}

// cooldownClearLocked checks the active interjection spacing.
func (s *Scheduler) cooldownClearLocked() bool {
	interval := s.cooldown
	if s.ctx.UserSeemsBusy {
		interval = s.busyCooldown
	}
	return s.lastInterjection.IsZero() || s.clock().Sub(s.lastInterjection) >= interval
}

// fireLocked records the interjection and builds the callback payload.
// Caller holds mu.
func (s *Scheduler) fireLocked(reason Reason, hint, evidence string) *Event {
	s.lastInterjection = s.clock()
	s.count++
	s.log.Info("ambient: interjection fired (%s): %s", reason, hint)
	return &Event{
		Reason:       reason,
		Hint:         hint,
		RecentSpeech: evidence,
		UserActivity: s.ctx.UserActivity,
		UserMood:     s.ctx.Sentiment,
		UserBusy:     s.ctx.UserSeemsBusy,
		At:           s.lastInterjection,
	}
}

// tryFire is the cooldown-enforcing entry point for tick-driven
// interjections (probe reactions, long-silence check-ins).
func (s *Scheduler) tryFire(reason Reason, hint, evidence string) {
	s.mu.Lock()
	var ev *Event
	if s.friend > 0 && s.cooldownClearLocked() {
		ev = s.fireLocked(reason, hint, evidence)
	}
	s.mu.Unlock()
	s.deliver(ev)
}

func (s *Scheduler) deliver(ev *Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	cb := s.onInterject
	s.mu.Unlock()
	if cb != nil {
		cb(*ev)
	}
}

// run is the background tick loop: silence accounting, periodic vision
// probes, long-silence check-ins. Probe failures are logged and the
// loop keeps going.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

func (s *Scheduler) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ctx.SilenceDuration += s.tick
	friend := s.friend
	now := s.clock()
	probeScreen := s.vision != nil && friend >= screenProbeMinThreshold &&
		now.Sub(s.lastScreenProbe) > s.screenInterval
	probeCamera := s.vision != nil && friend >= cameraProbeMinThreshold &&
		now.Sub(s.lastCameraProbe) > s.cameraInterval
	if probeScreen {
		s.lastScreenProbe = now
	}
	if probeCamera {
		s.lastCameraProbe = now
	}
	silence := s.ctx.SilenceDuration
	s.mu.Unlock()

	if probeScreen {
		s.probeScreen(ctx, friend)
	}
	if probeCamera {
		s.probeCamera(ctx, friend)
	}

	if silence > longSilenceThreshold && friend >= silenceMinThreshold {
		if s.rand() < silenceCheckInChance {
			s.mu.Lock()
			s.ctx.SilenceDuration = 0
			s.mu.Unlock()
			s.tryFire(ReasonCheckIn, "been quiet for a while", "")
		}
	}
}

// probeScreen asks the vision backend what's on screen and reacts when
// the user looks stuck on something the assistant could help with.
func (s *Scheduler) probeScreen(ctx context.Context, friend float64) {
	analysis, err := s.vision.DescribeScreen(ctx)
	if err != nil {
		s.log.Warn("ambient: screen probe failed: %v", err)
		return
	}
	if analysis == "" {
		return
	}
	s.UpdateVisualContext("", analysis)

	lower := strings.ToLower(analysis)
	if containsAny(lower, []string{"error", "stuck", "searching", "looking for"}) {
		if s.rand() < friend*0.3 {
			s.tryFire(ReasonHelpfulInfo, "noticed on screen: "+truncate(analysis, 100), "")
		}
	}
}

// probeCamera asks the vision backend about the room and reacts to a
// visibly relaxed or visibly stressed user.
func (s *Scheduler) probeCamera(ctx context.Context, friend float64) {
	analysis, err := s.vision.DescribeCamera(ctx)
	if err != nil {
		s.log.Warn("ambient: camera probe failed: %v", err)
		return
	}
	if analysis == "" {
		return
	}
	s.UpdateVisualContext(analysis, "")

	lower := strings.ToLower(analysis)
	switch {
	case containsAny(lower, []string{"smoking", "blunt", "relaxing", "drink"}):
		if s.rand() < friend*0.4 {
			s.tryFire(ReasonVibe, "saw user: "+truncate(analysis, 100), "")
		}
	case containsAny(lower, []string{"stressed", "frustrated", "tired", "head in hands"}):
		if s.rand() < friend*0.5 {
			s.tryFire(ReasonCheckIn, "user looks stressed: "+truncate(analysis, 100), "")
		}
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
