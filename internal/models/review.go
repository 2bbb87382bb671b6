package models

import (
	"fmt"
	"strconv"
)

// TimeLayout is the fixed timestamp format of every record. It sorts
// lexicographically in time order, which the history date filter relies on.
const TimeLayout = "2006-01-02 15:04:05"

type ReviewStatus string

const (
	StatusPending ReviewStatus = "pending"
	StatusPass    ReviewStatus = "pass"
	StatusFail    ReviewStatus = "fail"
)

// ParseDecision accepts the two terminal statuses a reviewer may set.
func ParseDecision(s string) (ReviewStatus, bool) {
	switch ReviewStatus(s) {
	case StatusPass, StatusFail:
		return ReviewStatus(s), true
	}
	return "", false
}

// ReviewRecord is one image submitted for human pass/fail review.
type ReviewRecord struct {
	ID         int          `json:"id"`
	Filename   string       `json:"filename"`
	Label      string       `json:"label"`
	Status     ReviewStatus `json:"status"`
	UploadedAt string       `json:"uploaded_at"`
	ReviewedAt string       `json:"reviewed_at"`
	Reason     string       `json:"reason"`
}

func (r ReviewRecord) Pending() bool { return r.Status == StatusPending }

// ReviewSchema is the row layout of the review log.
type ReviewSchema struct{}

var reviewHeader = []string{"id", "filename", "label", "status", "uploaded_at", "reviewed_at", "reason"}

func (ReviewSchema) Name() string { return "review" }

func (ReviewSchema) Header() []string { return reviewHeader }

func (ReviewSchema) Encode(r ReviewRecord) []string {
	return []string{strconv.Itoa(r.ID), r.Filename, r.Label, string(r.Status), r.UploadedAt, r.ReviewedAt, r.Reason}
}

func (ReviewSchema) Decode(row []string) (ReviewRecord, error) {
	if len(row) != len(reviewHeader) {
		return ReviewRecord{}, fmt.Errorf("review row has %d columns, want %d", len(row), len(reviewHeader))
	}
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return ReviewRecord{}, fmt.Errorf("review row id %q: %w", row[0], err)
	}
	return ReviewRecord{
		ID:         id,
		Filename:   row[1],
		Label:      row[2],
		Status:     ReviewStatus(row[3]),
		UploadedAt: row[4],
		ReviewedAt: row[5],
		Reason:     row[6],
	}, nil
}

func (ReviewSchema) ID(r ReviewRecord) int { return r.ID }
