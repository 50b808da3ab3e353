package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection, Provider and AsyncOperation are migrated by other tooling and
// only read here.

type Collection struct {
	CumulusID int64     `db:"cumulus_id" json:"cumulus_id"`
	Name      string    `db:"name" json:"name"`
	Version   string    `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (Collection) TableName() string {
	return "collections"
}

type Provider struct {
	CumulusID int64     `db:"cumulus_id" json:"cumulus_id"`
	Name      string    `db:"name" json:"name"`
	Protocol  string    `db:"protocol" json:"protocol"`
	Host      string    `db:"host" json:"host"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (Provider) TableName() string {
	return "providers"
}

type AsyncOperation struct {
	CumulusID     int64     `db:"cumulus_id" json:"cumulus_id"`
	ID            uuid.UUID `db:"id" json:"id"`
	Description   string    `db:"description" json:"description"`
	OperationType string    `db:"operation_type" json:"operation_type"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (AsyncOperation) TableName() string {
	return "async_operations"
}
