// Package db provides database models and utilities for Flightdeck.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProjectModel struct {
	BaseModel
	Name string `gorm:"not null;unique;check:name <> ''"`
	// Repositories and pipelines are owned by value and serialized as JSON
	Repositories        string `gorm:"type:text;not null"`
	Pipelines           string `gorm:"type:text;not null"`
	IsProductionRelease bool   `gorm:"not null"`

	Deployments []DeploymentModel        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Releases    []ProductionReleaseModel `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

type DeploymentModel struct {
	BaseModel
	ProjectID           uuid.UUID  `gorm:"not null;index"`
	PipelineID          uuid.UUID  `gorm:"not null;index"`
	RepositoryID        uuid.UUID  `gorm:"not null"`
	BuildNumber         string     `gorm:"not null"`
	Branch              string     `gorm:"not null"`
	Environment         string     `gorm:"not null"`
	GlobalReleaseNumber string     `gorm:"not null"`
	BatchID             uuid.UUID  `gorm:"not null;index"`
	ProductionReleaseID *uuid.UUID `gorm:"index"`
	Status              string     `gorm:"not null;check:status <> ''"` // pending, in_progress, success, failure
	WorkflowRunID       *int64
	StartedAt           time.Time `gorm:"not null"`
	CompletedAt         *time.Time
}

func (DeploymentModel) TableName() string {
	return "deployments"
}

type ProductionReleaseModel struct {
	BaseModel
	ProjectID     uuid.UUID `gorm:"not null;index"`
	ReleaseNumber string    `gorm:"not null;check:release_number <> ''"`
	Status        string    `gorm:"not null;check:status <> ''"` // draft, in_progress, completed, cancelled
	// Steps, sign-offs, the compliance file and email records are
	// serialized as JSON; one row write keeps step completion atomic
	Steps           string `gorm:"type:text;not null"`
	QASignOff       *string
	POSignOff       *string
	ComplianceFile  *string `gorm:"type:text"`
	EmailRecipients string  `gorm:"not null"`
	Emails          string  `gorm:"type:text;not null"`
	CompletedAt     *time.Time
}

func (ProductionReleaseModel) TableName() string {
	return "production_releases"
}

// SettingModel is the flat key-value tier: the encrypted GitHub token and
// legacy per-project step flags live here.
type SettingModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (SettingModel) TableName() string {
	return "settings"
}
