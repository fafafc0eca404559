package quiz

import (
	"fmt"
	"strings"

	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/textutil"
)

const systemPrompt = `You write short comprehension checks for a social app. Before someone shares or comments on content, they answer a few multiple choice questions to show they read it.

Rules:
- Ask exactly the requested number of questions.
- Each question has 3 or 4 choices and exactly one correct choice.
- Questions must be answerable from the material alone, not from general knowledge or the headline.
- Prefer the central claims, findings and conclusions over trivia such as dates or names.
- Distractors must be plausible to someone who only skimmed.
- Keep stems under 200 characters and choices under 120 characters.
- Do not quote the answer verbatim in the stem.
- If the material is too thin, a paywall notice, or an error page, set insufficient_context to true and return no questions.`

// modeInstructions tells the model what to test for each mode.
var modeInstructions = map[policy.TestMode]string{
	policy.ModeSourceOnly: "Test only the source material.",
	policy.ModeMixed:      "Test the source material and how the user's commentary relates to it. At least one question must be about the source.",
	policy.ModeUserOnly:   "Test the user's own text: its claims and reasoning. The user must understand what they are about to publish.",
}

// buildUserMessage constructs the prompt body for req.
func buildUserMessage(req qa.GenerateRequest, material string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Questions: %d\n", req.QuestionCount)
	fmt.Fprintf(&b, "Mode: %s\n", req.TestMode)
	if instr, ok := modeInstructions[req.TestMode]; ok {
		fmt.Fprintf(&b, "Instructions: %s\n", instr)
	}

	if req.TestMode != policy.ModeUserOnly {
		b.WriteString("\nSource material:\n")
		b.WriteString(textutil.Truncate(textutil.Normalize(material), cfg.MaxMaterialRunes))
		b.WriteString("\n")
	}

	if req.UserText != "" && req.TestMode != policy.ModeSourceOnly {
		b.WriteString("\nUser's text:\n")
		b.WriteString(textutil.Truncate(textutil.Normalize(req.UserText), cfg.MaxMaterialRunes))
		b.WriteString("\n")
	}

	return b.String()
}
