package models

import "time"

// MaxHistoryTurns bounds the rolling conversation history.
const MaxHistoryTurns = 10

// TurnIntent is the subset of a QueryIntent remembered per turn.
type TurnIntent struct {
	Type                QueryType   `json:"type"`
	Target              string      `json:"target,omitempty"`
	Filter              *FilterExpr `json:"filter,omitempty"`
	Scope               Scope       `json:"scope"`
	ExtractedCollection string      `json:"extractedCollection,omitempty"`
}

// ConversationTurn records one completed question/answer cycle.
type ConversationTurn struct {
	ID        string      `json:"id"`
	Question  string      `json:"question"`
	Intent    TurnIntent  `json:"intent"`
	Result    QueryResult `json:"result,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConversationContext is the rolling state threaded through a conversation.
// Values are immutable per turn: updates return a new context and never
// modify the prior one. A nil context behaves as an empty one.
type ConversationContext struct {
	LastEntity     string             `json:"lastEntity,omitempty"`
	LastCollection string             `json:"lastCollection,omitempty"`
	LastQueryType  QueryType          `json:"lastQueryType,omitempty"`
	LastTarget     string             `json:"lastTarget,omitempty"`
	CurrentTopic   string             `json:"currentTopic,omitempty"`
	History        []ConversationTurn `json:"conversationHistory"`
}

// NewConversationContext returns an empty context for a new conversation.
func NewConversationContext() *ConversationContext {
	return &ConversationContext{}
}

// Clone returns a shallow copy with its own history slice.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return &ConversationContext{}
	}
	cp := *c
	cp.History = make([]ConversationTurn, len(c.History))
	copy(cp.History, c.History)
	return &cp
}

// WithTurn returns a new context with the turn appended, evicting the oldest
// turn once the history exceeds MaxHistoryTurns.
func (c *ConversationContext) WithTurn(turn ConversationTurn) *ConversationContext {
	cp := c.Clone()
	cp.History = append(cp.History, turn)
	if len(cp.History) > MaxHistoryTurns {
		cp.History = cp.History[len(cp.History)-MaxHistoryTurns:]
	}
	return cp
}

// LastTurn returns the most recent turn, or nil if the history is empty.
func (c *ConversationContext) LastTurn() *ConversationTurn {
	if c == nil || len(c.History) == 0 {
		return nil
	}
	return &c.History[len(c.History)-1]
}

// RecentTurns returns up to n of the most recent turns, oldest first.
func (c *ConversationContext) RecentTurns(n int) []ConversationTurn {
	if c == nil || n <= 0 {
		return nil
	}
	if len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}
