package notify

import (
	"fmt"
	"strings"

	"projecthub/internal/model"
)

func TaskAssigned(task model.Task, projectName string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You have been assigned the task %q in project %q.\n", task.Title, projectName)
	fmt.Fprintf(&b, "Status: %s\nPriority: %s\n", task.Status, task.Priority)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", task.DueDate.Format("2006-01-02"))
	}
	return Message{
		Template: TemplateTaskAssigned,
		To:       deref(task.Assignee),
		Subject:  fmt.Sprintf("[%s] Task assigned: %s", projectName, task.Title),
		Body:     b.String(),
	}
}

func RiskEscalated(entry model.RiskEntry, projectName string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q in project %q is now RED.\n", entry.Reference, entry.Title, projectName)
	fmt.Fprintf(&b, "Probability: %s\nImpact: %s\n", entry.Probability, entry.Impact)
	if entry.MitigationPlan != "" {
		fmt.Fprintf(&b, "Mitigation plan: %s\n", entry.MitigationPlan)
	}
	return Message{
		Template: TemplateRiskEscalated,
		To:       deref(entry.Owner),
		Subject:  fmt.Sprintf("[%s] %s escalated to red", projectName, entry.Reference),
		Body:     b.String(),
	}
}

func PCRResolved(cr model.ChangeRequest, projectName string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Change request %s %q for project %q was resolved: %s.\n",
		cr.Reference, cr.Title, projectName, cr.Status)
	if cr.Status.CommitsSchedule() {
		fmt.Fprintf(&b, "New project end date: %s\n", cr.ProposedEndDate.Format("2006-01-02"))
	}
	if cr.ApproverNotes != "" {
		fmt.Fprintf(&b, "Approver notes: %s\n", cr.ApproverNotes)
	}
	return Message{
		Template: TemplatePCRResolved,
		To:       cr.RequestedBy,
		Subject:  fmt.Sprintf("[%s] %s %s", projectName, cr.Reference, cr.Status),
		Body:     b.String(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
