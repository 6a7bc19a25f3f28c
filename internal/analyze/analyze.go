// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analyze derives lightweight conversation signals from recent
// history entries. This is keyword-matching heuristics, not NLP; the
// fixed check order below is load-bearing and intentional.
package analyze

import (
	"strings"

	"github.com/mentorward/mentor-tui/internal/history"
)

// Window is how many of the most recent history entries are inspected.
const Window = 6

// =============================================================================
// SIGNAL TYPES
// =============================================================================

// QuestionType categorizes the learner's most recent line of questioning.
type QuestionType int

const (
	// QuestionGeneral is the default when no keyword rule matches.
	QuestionGeneral QuestionType = iota
	// QuestionConceptInquiry covers "what does print do" style questions.
	QuestionConceptInquiry
	// QuestionPrediction covers "what will this print" style questions.
	QuestionPrediction
	// QuestionProjectRequest covers "make a calculator" style asks.
	QuestionProjectRequest
	// QuestionOutputPrediction covers output questions quoting literal text.
	QuestionOutputPrediction
)

// String returns the wire/name form of the question type.
func (q QuestionType) String() string {
	switch q {
	case QuestionConceptInquiry:
		return "concept_inquiry"
	case QuestionPrediction:
		return "prediction"
	case QuestionProjectRequest:
		return "project_request"
	case QuestionOutputPrediction:
		return "output_prediction"
	default:
		return "general"
	}
}

// Progression estimates how far along the learner is.
type Progression int

const (
	ProgressionBeginner Progression = iota
	ProgressionIntermediate
	ProgressionHandsOn
)

// String returns the name form of the progression level.
func (p Progression) String() string {
	switch p {
	case ProgressionIntermediate:
		return "intermediate"
	case ProgressionHandsOn:
		return "hands_on"
	default:
		return "beginner"
	}
}

// Signals is the derived view of the recent conversation. It is recomputed
// on demand and never cached or stored.
type Signals struct {
	HasPrintTopic   bool
	HasCodeTopic    bool
	HasProjectTopic bool
	TopicContinuity bool

	QuestionType QuestionType
	Progression  Progression

	// ConversationLength is the full stored history length, not the
	// inspected window size.
	ConversationLength int

	LastUserMessage      string
	LastAssistantMessage string
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze inspects the last few history entries and derives Signals.
//
// Per message the rules run in fixed order, and the first rule that assigns
// a question type wins for that message:
//  1. "print" marks the print topic; with "what"/"does"/"use" it is a
//     concept inquiry, with "output"/"result" a prediction.
//  2. "code"/"function"/"python" marks the code topic.
//  3. "calculator"/"create"/"make" marks the project topic and a project
//     request.
//  4. "output" together with "print" or a quote character is an output
//     prediction.
//
// A newer message's question type overrides an older one, so the signal
// tracks the most recent classified message.
func Analyze(h *history.Window) Signals {
	sig := Signals{
		ConversationLength: h.Len(),
	}

	recent := h.Last(Window)
	for _, msg := range recent {
		content := strings.ToLower(msg.Content)

		switch msg.Role {
		case history.RoleUser:
			sig.LastUserMessage = msg.Content
		case history.RoleAssistant:
			sig.LastAssistantMessage = msg.Content
		}

		if qt, ok := classifyMessage(content, &sig); ok {
			sig.QuestionType = qt
		}
	}

	sig.TopicContinuity = topicContinuity(recent)
	sig.Progression = progression(sig.HasCodeTopic, sig.ConversationLength)

	return sig
}

// classifyMessage applies the keyword rules to one lower-cased message,
// updating topic flags and returning the question type if any rule matched.
func classifyMessage(content string, sig *Signals) (QuestionType, bool) {
	assigned := false
	qt := QuestionGeneral

	if strings.Contains(content, "print") {
		sig.HasPrintTopic = true
		if strings.Contains(content, "what") ||
			strings.Contains(content, "does") ||
			strings.Contains(content, "use") {
			qt, assigned = QuestionConceptInquiry, true
		} else if strings.Contains(content, "output") ||
			strings.Contains(content, "result") {
			qt, assigned = QuestionPrediction, true
		}
	}

	if strings.Contains(content, "code") ||
		strings.Contains(content, "function") ||
		strings.Contains(content, "python") {
		sig.HasCodeTopic = true
	}

	if strings.Contains(content, "calculator") ||
		strings.Contains(content, "create") ||
		strings.Contains(content, "make") {
		sig.HasProjectTopic = true
		if !assigned {
			qt, assigned = QuestionProjectRequest, true
		}
	}

	if !assigned && strings.Contains(content, "output") &&
		(strings.Contains(content, "print") || containsQuote(content)) {
		qt, assigned = QuestionOutputPrediction, true
	}

	return qt, assigned
}

// containsQuote reports whether the content carries a string literal marker.
func containsQuote(content string) bool {
	return strings.ContainsAny(content, `"'`)
}

// topicContinuity is true iff the last two user messages in the inspected
// window stick to the same single topic: both print-only or both
// calculator-only.
func topicContinuity(recent []history.Message) bool {
	var users []string
	for i := len(recent) - 1; i >= 0 && len(users) < 2; i-- {
		if recent[i].Role == history.RoleUser {
			users = append(users, strings.ToLower(recent[i].Content))
		}
	}
	if len(users) < 2 {
		return false
	}

	printOnly := func(s string) bool {
		return strings.Contains(s, "print") && !strings.Contains(s, "calculator")
	}
	calcOnly := func(s string) bool {
		return strings.Contains(s, "calculator") && !strings.Contains(s, "print")
	}

	return (printOnly(users[0]) && printOnly(users[1])) ||
		(calcOnly(users[0]) && calcOnly(users[1]))
}

// progression picks the learner progression from topic flags and length.
func progression(hasCode bool, length int) Progression {
	switch {
	case hasCode && length > 2:
		return ProgressionHandsOn
	case length > 4:
		return ProgressionIntermediate
	default:
		return ProgressionBeginner
	}
}
