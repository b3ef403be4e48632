package repository

import (
	"time"

	"github.com/yz4230/deployboard/internal/entity"
)

type DeployRecord struct {
	ID           string `gorm:"primaryKey"`
	Title        string
	ProjectName  string `gorm:"index"`
	Operator     string
	Environment  string
	Branch       string
	CommitRef    string
	Note         string
	DeployedAt   time.Time
	DeployedAtMs int64 `gorm:"index"`
	Status       string
	CreatedAt    time.Time
}

func (d *DeployRecord) ToEntity() *entity.DeployRecord {
	return &entity.DeployRecord{
		ID:          entity.ID(d.ID),
		Title:       d.Title,
		ProjectName: d.ProjectName,
		Operator:    d.Operator,
		Environment: d.Environment,
		Branch:      d.Branch,
		Commit:      d.CommitRef,
		Note:        d.Note,
		DeployedAt:  d.DeployedAt.UTC(),
		Status:      entity.DeployStatus(d.Status),
	}
}

func (d *DeployRecord) FromEntity(e *entity.DeployRecord) {
	d.ID = e.ID.String()
	d.Title = e.Title
	d.ProjectName = e.ProjectName
	d.Operator = e.Operator
	d.Environment = e.Environment
	d.Branch = e.Branch
	d.CommitRef = e.Commit
	d.Note = e.Note
	d.DeployedAt = e.DeployedAt.UTC()
	d.DeployedAtMs = e.DeployedAt.UnixMilli()
	d.Status = string(e.Status)
}

type Project struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}
