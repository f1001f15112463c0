package models

import (
	"time"

	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusSkipped   DeliveryStatus = "SKIPPED"
)

// BootEvent records one boot-notify run.
type BootEvent struct {
	gorm.Model
	RunID       string         `gorm:"uniqueIndex;not null" json:"run_id"`
	Device      string         `json:"device"`
	Name        string         `json:"name"`
	BootedAt    time.Time      `gorm:"index" json:"booted_at"`
	Recipient   string         `json:"recipient"`
	EmailStatus DeliveryStatus `json:"email_status"`
	SlackStatus DeliveryStatus `json:"slack_status"`
}

// StatusOf maps a delivery result to a status.
func StatusOf(delivered bool) DeliveryStatus {
	if delivered {
		return DeliveryStatusDelivered
	}
	return DeliveryStatusFailed
}
