// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mentor generates the local scripted guidance replies served
// while the session is cooling down. No remote call is involved; the
// output is deterministic for a given prompt and remaining time.
package mentor

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// codeKeywords routes a prompt to the code-learning template.
var codeKeywords = []string{"python", "code", "function"}

// Generate maps a prompt to a templated guidance message. The remaining
// cooldown seconds are embedded verbatim; negative inputs are clamped to
// zero before formatting.
func Generate(prompt string, remainingSeconds int) string {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}

	if isCodePrompt(prompt) {
		return codeTemplate(remainingSeconds)
	}
	return genericTemplate(remainingSeconds)
}

// RemainingSeconds converts a cooldown deadline into whole seconds,
// rounding up. An already-passed deadline yields zero rather than a
// negative count.
func RemainingSeconds(deadline, now time.Time) int {
	if !deadline.After(now) {
		return 0
	}
	ms := float64(deadline.Sub(now).Milliseconds())
	return int(math.Ceil(ms / 1000.0))
}

// IsTemplated reports whether a reply came from these templates. Both
// templates carry the unlock line, which a remote reply never does.
func IsTemplated(reply string) bool {
	return strings.Contains(reply, "Direct answers unlock in")
}

// isCodePrompt reports whether the prompt looks like a code question.
func isCodePrompt(prompt string) bool {
	p := strings.ToLower(prompt)
	for _, kw := range codeKeywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

func codeTemplate(remaining int) string {
	return fmt.Sprintf(`Let's work through this yourself first.

Before I hand you an answer, try these steps:
1. Read the code out loud, line by line. What does each line do?
2. Predict the result before running anything.
3. Run it and compare. Where did your prediction differ?

Small experiments teach more than finished answers. Change one thing
and run it again.

Direct answers unlock in %ds.`, remaining)
}

func genericTemplate(remaining int) string {
	return fmt.Sprintf(`Good question - let's think about it together.

Take a moment before asking for the answer:
- What do you already know that is close to this?
- Can you break the question into a smaller one?
- What would you try first, and what do you expect to happen?

Working it out yourself is the part that sticks.

Direct answers unlock in %ds.`, remaining)
}
