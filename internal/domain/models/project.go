package models

import (
	"time"
)

// CompanyType selects the root workspace label a client's folders live under.
type CompanyType string

const (
	CompanyPrivateLabel  CompanyType = "private_label"
	CompanyPublicCompany CompanyType = "public_company"
)

// ProjectType is the engagement category. Closed set.
type ProjectType string

const (
	ProjectTax   ProjectType = "tax"
	ProjectAudit ProjectType = "audit"
)

type Client struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	CompanyType CompanyType `json:"company_type" db:"company_type"`
	CreatedBy   string      `json:"created_by" db:"created_by"`
	Active      bool        `json:"active" db:"active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type Project struct {
	ID            string      `json:"id" db:"id"`
	ClientID      string      `json:"client_id" db:"client_id"`
	Name          string      `json:"name" db:"name"`
	Type          ProjectType `json:"type" db:"project_type"`
	DriveFolderID string      `json:"drive_folder_id" db:"drive_folder_id"`
	CreatedBy     string      `json:"created_by" db:"created_by"`
	Active        bool        `json:"active" db:"active"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}
