package speech

import "time"

// Echo suppression timing. After synthesis starts, microphone input is
// discarded for the utterance's estimated duration plus a grace period.
const (
	// DefaultFilterDuration covers utterances whose length is unknown.
	DefaultFilterDuration = 3 * time.Second
	// GracePeriod pads the suppression window past the estimated end.
	GracePeriod = 500 * time.Millisecond
	// MinConfidence is the recognition confidence floor; anything below
	// it is discarded as noise.
	MinConfidence = 0.7
	// HistorySize bounds the recent-utterance list used for echo matching.
	HistorySize = 10

	// secsPerWord drives the adaptive duration estimate for spoken text.
	secsPerWord = 0.4
	// minAdaptive / maxAdaptive clamp the estimate.
	minAdaptive = 1 * time.Second
	maxAdaptive = 15 * time.Second
)

// Speech dispatch timing.
const (
	// DefaultLockTimeout bounds how long one utterance waits for the
	// cross-process audio lock before being dropped.
	DefaultLockTimeout = 10 * time.Second
	// idlePoll is the worker's wake-up cadence when the notify channel
	// is quiet, so Stop and queue races never wedge it.
	idlePoll = 500 * time.Millisecond
)
