package model

import (
	"fmt"
	"time"
)

// RiskEntry is one row of a project's risk/issue register.
type RiskEntry struct {
	ID             int         `json:"id"`
	ProjectID      int         `json:"project_id"`
	Type           EntryType   `json:"type"`
	Sequence       int         `json:"sequence"`
	Reference      string      `json:"reference"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	MitigationPlan string      `json:"mitigation_plan"`
	RAG            RAG         `json:"rag_status"`
	Probability    Level       `json:"probability"`
	Impact         Level       `json:"impact"`
	Owner          *string     `json:"owner,omitempty"`
	Status         EntryStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsOpen reports whether the entry still counts towards project health.
func (e RiskEntry) IsOpen() bool {
	return e.Status == EntryOpen
}

// RiskPatch carries a partial update. Type is only present so a change attempt can be rejected.
type RiskPatch struct {
	Type           *EntryType
	Title          *string
	Description    *string
	MitigationPlan *string
	RAG            *RAG
	Probability    *Level
	Impact         *Level
	Owner          *string
	Status         *EntryStatus
}

func (e *RiskEntry) Apply(p RiskPatch) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.MitigationPlan != nil {
		e.MitigationPlan = *p.MitigationPlan
	}
	if p.RAG != nil {
		e.RAG = *p.RAG
	}
	if p.Probability != nil {
		e.Probability = *p.Probability
	}
	if p.Impact != nil {
		e.Impact = *p.Impact
	}
	if p.Owner != nil {
		if *p.Owner == "" {
			e.Owner = nil
		} else {
			o := *p.Owner
			e.Owner = &o
		}
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}

// RiskFilter narrows register listings. Zero values match everything.
type RiskFilter struct {
	Type   EntryType
	Status EntryStatus
}

func (f RiskFilter) Match(e RiskEntry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}

// RAGCounts groups register entries by RAG.
type RAGCounts struct {
	Red   int `json:"red"`
	Amber int `json:"amber"`
	Green int `json:"green"`
}

func (c *RAGCounts) Add(r RAG) {
	switch r {
	case RAGRed:
		c.Red++
	case RAGAmber:
		c.Amber++
	case RAGGreen:
		c.Green++
	}
}

// FormatReference renders a sequence number as PREFIX-NNN.
func FormatReference(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}
