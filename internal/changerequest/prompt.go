package changerequest

import (
	"fmt"
	"strings"

	"projecthub/internal/model"
	"projecthub/internal/textgen"
)

const systemPrompt = "You write concise, formal project change request documents for a steering committee. " +
	"Use plain paragraphs with the headings Summary, Reason, Impact and Recommendation."

// BuildPrompt renders the project and request fields into a generation prompt.
func BuildPrompt(p *model.Project, cr *model.ChangeRequest) textgen.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "Project description: %s\n", p.Description)
	}
	fmt.Fprintf(&b, "Change request: %s %s\n", cr.Reference, cr.Title)
	current := "not set"
	if cr.OriginalEndDate != nil {
		current = cr.OriginalEndDate.Format("2006-01-02")
	}
	fmt.Fprintf(&b, "Current end date: %s\n", current)
	fmt.Fprintf(&b, "Proposed end date: %s\n", cr.ProposedEndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Reason: %s\n", cr.Reason)
	if cr.Impact != "" {
		fmt.Fprintf(&b, "Impact: %s\n", cr.Impact)
	}
	if cr.RequestedBy != "" {
		fmt.Fprintf(&b, "Requested by: %s\n", cr.RequestedBy)
	}
	b.WriteString("\nWrite the change request document.")

	return textgen.Prompt{
		System:   systemPrompt,
		User:     b.String(),
		Fallback: Placeholder(p, cr),
	}
}

// Placeholder is the document stored when generation is unavailable.
func Placeholder(p *model.Project, cr *model.ChangeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", cr.Reference, cr.Title)
	fmt.Fprintf(&b, "Project %s requests moving its end date to %s.\n", p.Name, cr.ProposedEndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Reason: %s\n", cr.Reason)
	if cr.Impact != "" {
		fmt.Fprintf(&b, "Impact: %s\n", cr.Impact)
	}
	b.WriteString("\n(Automatically generated narrative unavailable.)")
	return b.String()
}
