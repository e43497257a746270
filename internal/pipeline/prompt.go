package pipeline

import "strings"

const promptPreamble = `You are a professional coding assistant. Read the assignment text and generate structured answers with:
- Bold question titles using **Q1**, **Q2**, etc.
- Use code blocks (triple backticks) for all code.
- Add spacing between questions.
- No filler advice like "remember to compile" or "replace XYZ".

Assignment Text:
`

// BuildPrompt wraps validated assignment text in the solving instructions.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.Grow(len(promptPreamble) + len(text) + 1)
	b.WriteString(promptPreamble)
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}
