package entity

import (
	"strconv"
	"strings"
	"time"
)

var deployedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type DeployStatus string

const (
	DeployStatusSuccess  DeployStatus = "success"
	DeployStatusFailed   DeployStatus = "failed"
	DeployStatusRunning  DeployStatus = "running"
	DeployStatusCanceled DeployStatus = "canceled"
)

func (s DeployStatus) Valid() bool {
	switch s {
	case DeployStatusSuccess, DeployStatusFailed, DeployStatusRunning, DeployStatusCanceled:
		return true
	}
	return false
}

// DeployRecord is one reported deployment. Records are never updated after
// they are written.
type DeployRecord struct {
	ID          ID           `json:"id"`
	Title       string       `json:"title"`
	ProjectName string       `json:"projectName"`
	Operator    string       `json:"operator"`
	Environment string       `json:"environment"`
	Branch      string       `json:"branch"`
	Commit      string       `json:"commit"`
	Note        string       `json:"note,omitempty"`
	DeployedAt  time.Time    `json:"deployedAt"`
	Status      DeployStatus `json:"status"`
}

// DeployPayload is the unvalidated input of a create request.
type DeployPayload struct {
	Title       string `json:"title"`
	ProjectName string `json:"projectName"`
	Operator    string `json:"operator"`
	Environment string `json:"environment"`
	Branch      string `json:"branch"`
	Commit      string `json:"commit"`
	Note        string `json:"note,omitempty"`
	DeployedAt  string `json:"deployedAt,omitempty"`
	Status      string `json:"status"`
}

// Validate checks the required fields in a fixed order and reports the first
// one that is missing.
func (p *DeployPayload) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", p.Title},
		{"projectName", p.ProjectName},
		{"operator", p.Operator},
		{"environment", p.Environment},
		{"branch", p.Branch},
		{"commit", p.Commit},
		{"status", p.Status},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	if !DeployStatus(strings.TrimSpace(p.Status)).Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of success, failed, running, canceled"}
	}
	return nil
}

// ResolveDeployedAt parses the optional deployedAt field. Anything that does
// not parse to an instant representable in RFC 3339 resolves to now.
func (p *DeployPayload) ResolveDeployedAt(now time.Time) time.Time {
	raw := strings.TrimSpace(p.DeployedAt)
	if raw == "" {
		return now.UTC()
	}
	for _, layout := range deployedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return representableOr(t.UTC(), now)
		}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
		return representableOr(time.UnixMilli(ms).UTC(), now)
	}
	return now.UTC()
}

// representableOr returns t when its year fits the four digits JSON
// timestamps allow, and now otherwise.
func representableOr(t, now time.Time) time.Time {
	if y := t.Year(); y < 0 || y > 9999 {
		return now.UTC()
	}
	return t
}

// ToRecord builds a new record from an already validated payload.
func (p *DeployPayload) ToRecord(id ID, now time.Time) *DeployRecord {
	return &DeployRecord{
		ID:          id,
		Title:       strings.TrimSpace(p.Title),
		ProjectName: strings.TrimSpace(p.ProjectName),
		Operator:    strings.TrimSpace(p.Operator),
		Environment: strings.TrimSpace(p.Environment),
		Branch:      strings.TrimSpace(p.Branch),
		Commit:      strings.TrimSpace(p.Commit),
		Note:        strings.TrimSpace(p.Note),
		DeployedAt:  p.ResolveDeployedAt(now),
		Status:      DeployStatus(strings.TrimSpace(p.Status)),
	}
}
