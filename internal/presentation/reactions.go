package presentation

import "sync"

// ReactionStage distinguishes the first acknowledgement from the follow-up.
type ReactionStage int

const (
	StageInitial ReactionStage = iota
	StageFollowUp
)

// ReactionTracker remembers message ids that are waiting for a reaction.
// It is presentation-layer ephemera: entries are evicted once matched and
// the whole table is lost on restart, which is acceptable.
type ReactionTracker struct {
	mu      sync.Mutex
	pending map[int64]pendingReaction
}

type pendingReaction struct {
	stage    ReactionStage
	threadID int64
}

func NewReactionTracker() *ReactionTracker {
	return &ReactionTracker{pending: make(map[int64]pendingReaction)}
}

// Track registers a message id as awaiting a reaction.
func (t *ReactionTracker) Track(messageID, threadID int64, stage ReactionStage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[messageID] = pendingReaction{stage: stage, threadID: threadID}
}

// Match removes and returns the entry for a reacted-to message, if any.
func (t *ReactionTracker) Match(messageID int64) (ReactionStage, int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[messageID]
	if !ok {
		return 0, 0, false
	}
	delete(t.pending, messageID)
	return p.stage, p.threadID, true
}

// Len reports how many messages are still awaiting a reaction.
func (t *ReactionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
