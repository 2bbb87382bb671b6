package models

import (
	"fmt"
	"strconv"
)

const (
	JudgmentTrue  = "True"
	JudgmentFalse = "False"
)

func ValidJudgment(s string) bool {
	return s == JudgmentTrue || s == JudgmentFalse
}

// FeedbackRecord is one model prediction, later annotated with ground truth
// by a human judge.
type FeedbackRecord struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	Predict     string `json:"predict"`
	GroundTruth string `json:"groundtruth"`
	Judgment    string `json:"judgment"`
	Time        string `json:"time"`
}

func (r FeedbackRecord) Annotated() bool { return r.Judgment != "" }

// FeedbackSchema is the row layout of the feedback log.
type FeedbackSchema struct{}

var feedbackHeader = []string{"id", "filename", "predict", "groundtruth", "judgment", "time"}

func (FeedbackSchema) Name() string { return "feedback" }

func (FeedbackSchema) Header() []string { return feedbackHeader }

func (FeedbackSchema) Encode(r FeedbackRecord) []string {
	return []string{strconv.Itoa(r.ID), r.Filename, r.Predict, r.GroundTruth, r.Judgment, r.Time}
}

func (FeedbackSchema) Decode(row []string) (FeedbackRecord, error) {
	if len(row) != len(feedbackHeader) {
		return FeedbackRecord{}, fmt.Errorf("feedback row has %d columns, want %d", len(row), len(feedbackHeader))
	}
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return FeedbackRecord{}, fmt.Errorf("feedback row id %q: %w", row[0], err)
	}
	return FeedbackRecord{
		ID:          id,
		Filename:    row[1],
		Predict:     row[2],
		GroundTruth: row[3],
		Judgment:    row[4],
		Time:        row[5],
	}, nil
}

func (FeedbackSchema) ID(r FeedbackRecord) int { return r.ID }
