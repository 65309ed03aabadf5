package service

import (
	"fmt"
	"strings"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// personaInstruction anchors every generation to the supplied context. The
// model must not answer from outside knowledge.
const personaInstruction = `You are YojanaSaar, a kind and knowledgeable advisor that helps Indian citizens discover relevant government schemes.

Answer based only on the schemes provided in the context below. Explain why each scheme applies to the user, for example to farmers or to students in a particular state. Format the answer as Markdown, using a heading for each suggested scheme and bullet points for the details.

If the context does not directly answer the question, politely say that no specific match was found and suggest what details the user could add to get better help. Do not make up information.`

// BuildPrompt composes the grounded prompt sent to the model: persona, the
// candidate schemes as structured context, the prior turns in order, and the
// current question. It is a pure function of its inputs.
func BuildPrompt(query string, schemes []domain.SchemeRecord, history []domain.ConversationTurn) string {
	blocks := make([]string, len(schemes))
	for i, s := range schemes {
		blocks[i] = schemeContext(s)
	}

	var b strings.Builder
	b.WriteString(personaInstruction)
	b.WriteString("\n\n### Context:\n\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))

	if len(history) > 0 {
		lines := make([]string, len(history))
		for i, turn := range history {
			lines[i] = speakerLabel(turn.Role) + ": " + turn.Content
		}
		b.WriteString("\n\n### Conversation so far:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	b.WriteString("\n\n### Question:\n")
	b.WriteString(query)
	b.WriteString("\n\n### Answer:\n")
	return b.String()
}

func schemeContext(s domain.SchemeRecord) string {
	return fmt.Sprintf(
		"### Scheme: %s\nDescription: %s\nCategory: %s\nDepartment: %s\nState: %s\nLink: %s",
		s.Title, s.Description, s.Category, s.Department, s.State, s.Link,
	)
}

func speakerLabel(role domain.Role) string {
	if role == domain.RoleModel {
		return "Assistant"
	}
	return "User"
}
