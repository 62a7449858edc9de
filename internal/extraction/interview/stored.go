package interview

import (
	"context"
	"errors"
	"io"
	"strings"

	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/platform/gcp"
)

// TranscriptRef points at a transcript file written by the voice agent.
type TranscriptRef struct {
	Container        string `json:"container"`
	BlobPath         string `json:"blob_path" binding:"required"`
	ConversationID   string `json:"conversation_id" binding:"required"`
	JobApplicationID string `json:"job_application_id"`
	JobPostName      string `json:"job_post_name"`
	JobPostVersion   int    `json:"job_post_version"`
	StorageAccount   string `json:"storage_account"`
}

// maxTranscriptBytes bounds how much of a stored transcript is read.
const maxTranscriptBytes = 8 << 20

// ScoreStored downloads the referenced transcript and scores it with the
// default criteria.
func (s *Scorer) ScoreStored(ctx context.Context, ref TranscriptRef) (*types.InterviewScore, error) {
	const op = "interview.score_stored"
	if s.bucket == nil {
		return nil, errs.InvalidInput(op, "transcript storage is not configured")
	}
	key := strings.TrimPrefix(strings.TrimSpace(ref.BlobPath), "/")
	if key == "" {
		return nil, errs.InvalidInput(op, "blob_path is required")
	}
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryTranscript, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, errs.New(errs.KindInvalidInput, op, "transcript not found", err)
		}
		return nil, errs.New(errs.KindPersistence, op, "download transcript", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, maxTranscriptBytes))
	if err != nil {
		return nil, errs.New(errs.KindPersistence, op, "read transcript", err)
	}
	transcript, err := ParseTranscript(raw)
	if err != nil {
		return nil, err
	}
	s.log.Debug("transcript downloaded",
		"conversation_id", ref.ConversationID,
		"job_application_id", ref.JobApplicationID,
		"turns", len(transcript),
	)
	return s.ScoreTranscript(ctx, ref.ConversationID, transcript, DefaultCriteria())
}
