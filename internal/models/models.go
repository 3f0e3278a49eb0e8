// Package models defines the persisted entities.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rollup tier table names. All three share the RollupSample shape and are
// always addressed explicitly via .Table(...).
const (
	TableRawSamples    = "metric_samples"
	TableRollup1m      = "data_1m"
	TableRollup1h      = "data_1h"
	TableRollup1d      = "data_1d"
	TableSleepSummary  = "sleep_summaries"
)

// MetricSample is one raw biometric sample. Rows are write-once: late
// duplicates are dropped on the composite key, never merged.
type MetricSample struct {
	Time       time.Time `gorm:"primaryKey;index:idx_samples_metric_time,priority:3" json:"time"`
	UserID     int64     `gorm:"primaryKey" json:"user_id"`
	MetricName string    `gorm:"primaryKey;type:varchar(64);index:idx_samples_metric_time,priority:1" json:"metric_name"`
	Value      float64   `gorm:"not null" json:"value"`
	IsImputed  bool      `gorm:"not null;default:false" json:"is_imputed"`
}

// TableName sets the table name for MetricSample
func (MetricSample) TableName() string {
	return TableRawSamples
}

// RollupSample is one precomputed average over a fixed bucket. The value is
// fully replaced on recomputation, never merged incrementally.
type RollupSample struct {
	Time       time.Time `gorm:"primaryKey" json:"time"`
	UserID     int64     `gorm:"primaryKey" json:"user_id"`
	MetricName string    `gorm:"primaryKey;type:varchar(64)" json:"metric_name"`
	AvgValue   float64   `gorm:"not null" json:"avg_value"`
}

// DailyZone defines one heart-rate zone boundary for a user and day.
// Write-once per (date, user, zone); independent of the sample stream.
type DailyZone struct {
	Date     time.Time `gorm:"primaryKey;type:date" json:"date"`
	UserID   int64     `gorm:"primaryKey" json:"user_id"`
	ZoneName string    `gorm:"primaryKey;type:varchar(32)" json:"zone_name"`
	MinHR    int       `gorm:"column:min_hr;not null" json:"min_hr"`
	MaxHR    int       `gorm:"column:max_hr;not null" json:"max_hr"`
}

// SleepSummary is one night of sleep per user per calendar day. Imputed rows
// are insert-if-absent only; a real observation is never overwritten.
// Efficiency is nullable: some devices report minutes without an efficiency
// score, and imputation must treat that as a missing required column.
type SleepSummary struct {
	Date          time.Time `gorm:"primaryKey;type:date" json:"date"`
	UserID        int64     `gorm:"primaryKey" json:"user_id"`
	MinutesAsleep float64   `gorm:"not null" json:"minutes_asleep"`
	Efficiency    *float64  `json:"efficiency"`
	IsImputed     bool      `gorm:"not null;default:false" json:"is_imputed"`
}

// TableName sets the table name for SleepSummary
func (SleepSummary) TableName() string {
	return TableSleepSummary
}

// User is a study participant wearing one or more devices.
type User struct {
	UserID          int64                       `gorm:"primaryKey" json:"user_id"`
	Name            string                      `gorm:"type:varchar(255);not null" json:"name"`
	Email           string                      `gorm:"type:varchar(255)" json:"email"`
	LastSeen        *time.Time                  `json:"last_seen"`
	DeviceConnected bool                        `gorm:"not null;default:false" json:"device_connected"`
	EnrollmentDate  time.Time                   `gorm:"type:date;not null" json:"enrollment_date"`
	Devices         datatypes.JSONSlice[string] `json:"devices"`
}
