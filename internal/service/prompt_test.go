package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	scheme := domain.SchemeRecord{
		ID:          "pm-kisan",
		Title:       "PM Kisan Samman Nidhi",
		Description: "Income support for farmer families.",
		Category:    "Agriculture",
		State:       "All India",
		Department:  "Ministry of Agriculture",
		Link:        "https://www.myscheme.gov.in/schemes/pm-kisan",
	}

	t.Run("orders persona, context, history, and question sections", func(t *testing.T) {
		history := []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "what about farmers?"},
			{Role: domain.RoleModel, Content: "There are several support programs."},
		}

		prompt := BuildPrompt("which one pays cash?", []domain.SchemeRecord{scheme}, history)

		persona := strings.Index(prompt, "You are YojanaSaar")
		contextSec := strings.Index(prompt, "### Context:")
		conversation := strings.Index(prompt, "### Conversation so far:")
		question := strings.Index(prompt, "### Question:")
		answer := strings.Index(prompt, "### Answer:")

		require.GreaterOrEqual(t, persona, 0)
		assert.Greater(t, contextSec, persona)
		assert.Greater(t, conversation, contextSec)
		assert.Greater(t, question, conversation)
		assert.Greater(t, answer, question)
		assert.True(t, strings.HasSuffix(prompt, "### Answer:\n"))
	})

	t.Run("serializes a scheme with all its fields", func(t *testing.T) {
		prompt := BuildPrompt("q", []domain.SchemeRecord{scheme}, nil)

		want := "### Scheme: PM Kisan Samman Nidhi\n" +
			"Description: Income support for farmer families.\n" +
			"Category: Agriculture\n" +
			"Department: Ministry of Agriculture\n" +
			"State: All India\n" +
			"Link: https://www.myscheme.gov.in/schemes/pm-kisan"
		assert.Contains(t, prompt, want)
	})

	t.Run("separates multiple schemes with a divider", func(t *testing.T) {
		second := scheme
		second.Title = "Kisan Credit Card"

		prompt := BuildPrompt("q", []domain.SchemeRecord{scheme, second}, nil)

		assert.Equal(t, 1, strings.Count(prompt, "\n\n---\n\n"))
		assert.Contains(t, prompt, "### Scheme: PM Kisan Samman Nidhi")
		assert.Contains(t, prompt, "### Scheme: Kisan Credit Card")
	})

	t.Run("omits the conversation section when history is empty", func(t *testing.T) {
		prompt := BuildPrompt("q", []domain.SchemeRecord{scheme}, nil)

		assert.NotContains(t, prompt, "### Conversation so far:")
	})

	t.Run("labels user and model turns", func(t *testing.T) {
		history := []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "hello"},
			{Role: domain.RoleModel, Content: "hi there"},
		}

		prompt := BuildPrompt("q", []domain.SchemeRecord{scheme}, history)

		assert.Contains(t, prompt, "User: hello\nAssistant: hi there")
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		history := []domain.ConversationTurn{{Role: domain.RoleUser, Content: "hello"}}

		first := BuildPrompt("q", []domain.SchemeRecord{scheme}, history)
		second := BuildPrompt("q", []domain.SchemeRecord{scheme}, history)

		assert.Equal(t, first, second)
	})
}
