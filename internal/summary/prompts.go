package summary

import (
	"fmt"
	"strings"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// NoResponseText replaces advice when the service returns nothing usable.
const NoResponseText = "No response generated."

func advicePrompt(in AdviceInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly financial assistant chatbot. Here is the user's %s summary:\n", in.Kind)
	fmt.Fprintf(&b, "- Period: %s to %s\n", in.Window.Start, in.Window.End)
	fmt.Fprintf(&b, "- Total expense: $%s\n", in.Total.StringFixed(2))
	b.WriteString("- Expense each category:\n")
	for _, c := range domain.Categories() {
		fmt.Fprintf(&b, "  - %s: $%s\n", c, in.Breakdown[c].StringFixed(2))
	}
	fmt.Fprintf(&b, "- %s goal: $%s\n", in.Kind.Title(), in.GoalAmount.StringFixed(2))
	fmt.Fprintf(&b, "- Performance summary: %s\n\n", in.Comparison)
	b.WriteString("Write a helpful, motivating message (3-4 sentences):\n")
	b.WriteString("1. Encourage the user based on their performance.\n")
	b.WriteString("2. Suggest which categories they might reduce spending in.\n")
	fmt.Fprintf(&b, "3. Give one actionable tip for the next %s.\n", in.Kind)
	b.WriteString("Keep it concise and natural.")
	return b.String()
}

func chatPrompt(message string) string {
	return "You are a friendly financial assistant chatbot that helps users track and plan expenses.\n" +
		fmt.Sprintf("The user says: %q\n", message) +
		"Respond conversationally, give helpful answers, and keep your tone supportive."
}
