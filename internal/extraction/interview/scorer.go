// Package interview scores interview transcripts with the extraction model
// and stores one score row per interview.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	interviewrepo "github.com/yungbote/cvextract/internal/data/repos/interview"
	types "github.com/yungbote/cvextract/internal/domain"
	domaininterview "github.com/yungbote/cvextract/internal/domain/interview"
	"github.com/yungbote/cvextract/internal/extraction/client"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/realtime"
	"github.com/yungbote/cvextract/internal/realtime/bus"
)

// Fixed instructions sent with every transcript prompt.
const systemInstructions = "You are an expert HR and technical interviewer. You evaluate candidates fairly and provide constructive, detailed feedback. Return ONLY valid JSON that matches the schema."

type TranscriptItem struct {
	Role           string `json:"role" validate:"oneof=agent user"`
	Message        string `json:"message"`
	TimeInCallSecs int    `json:"time_in_call_secs" validate:"min=0"`
}

// Criteria are the percentage weights shown to the model.
type Criteria struct {
	Technical      int `json:"Technical" validate:"min=0,max=100"`
	Communication  int `json:"Communication" validate:"min=0,max=100"`
	ProblemSolving int `json:"ProblemSolving" validate:"min=0,max=100"`
	English        int `json:"English" validate:"min=0,max=100"`
}

func DefaultCriteria() Criteria {
	return Criteria{Technical: 35, Communication: 25, ProblemSolving: 25, English: 15}
}

// Scores is the model's answer. Pointers tell a missing score from a zero.
type Scores struct {
	Technical      *int `json:"Technical" validate:"required,min=0,max=100"`
	Communication  *int `json:"Communication" validate:"required,min=0,max=100"`
	ProblemSolving *int `json:"ProblemSolving" validate:"required,min=0,max=100"`
	English        *int `json:"English" validate:"required,min=0,max=100"`
}

type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (*client.Result, error)
}

type PromptResolver interface {
	Resolve(ctx context.Context, ref prompts.Ref, defaultContent string, allowLatest bool) prompts.ResolvedPrompt
}

// Deps wires a Scorer. Bucket and Bus are optional; without a bucket only
// inline transcripts can be scored.
type Deps struct {
	Log        *logger.Logger
	Interviews interviewrepo.InterviewRepo
	Resolver   PromptResolver
	LLM        Completer
	Bucket     gcp.BucketService
	Bus        bus.Bus
}

type Scorer struct {
	log        *logger.Logger
	interviews interviewrepo.InterviewRepo
	resolver   PromptResolver
	llm        Completer
	bucket     gcp.BucketService
	bus        bus.Bus
}

func NewScorer(d Deps) *Scorer {
	return &Scorer{
		log:        d.Log.With("service", "InterviewScorer"),
		interviews: d.Interviews,
		resolver:   d.Resolver,
		llm:        d.LLM,
		bucket:     d.Bucket,
		bus:        d.Bus,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ScoreTranscript scores the conversation and upserts its score row.
func (s *Scorer) ScoreTranscript(ctx context.Context, conversationID string, transcript []TranscriptItem, criteria Criteria) (*types.InterviewScore, error) {
	const op = "interview.score"
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, errs.InvalidInput(op, "conversation id is required")
	}
	if len(transcript) == 0 {
		return nil, errs.InvalidInput(op, "transcript is empty")
	}
	for i, item := range transcript {
		if err := v().Struct(item); err != nil {
			return nil, errs.New(errs.KindInvalidInput, op, fmt.Sprintf("invalid transcript turn %d", i), err)
		}
	}
	if err := v().Struct(criteria); err != nil {
		return nil, errs.New(errs.KindInvalidInput, op, "invalid criteria", err)
	}
	log := s.log.With("conversation_id", conversationID)

	iv, err := s.interviews.GetByConversationID(ctx, nil, conversationID)
	if err != nil {
		return nil, errs.Persistence(op+".load_interview", err)
	}
	if iv == nil {
		return nil, errs.InvalidInput(op, fmt.Sprintf("no interview found for conversation %s", conversationID))
	}

	prompt := s.buildPrompt(ctx, transcript, criteria)
	res, err := s.llm.CompleteJSON(ctx, systemInstructions, prompt)
	if err != nil {
		return nil, err
	}
	scores, err := decodeScores(res.Data)
	if err != nil {
		return nil, err
	}

	row := &types.InterviewScore{
		InterviewID:    iv.ID,
		Technical:      *scores.Technical,
		Communication:  *scores.Communication,
		ProblemSolving: *scores.ProblemSolving,
		English:        *scores.English,
	}
	row.Average = domaininterview.Average(row.Technical, row.Communication, row.ProblemSolving, row.English)
	if err := s.interviews.UpsertScore(ctx, nil, row); err != nil {
		return nil, errs.Persistence(op+".upsert_score", err)
	}
	log.Info("interview scored", "average", row.Average, "model", res.Model, "attempts", res.Attempts)

	if s.bus != nil {
		evt := realtime.Event{Type: realtime.EventInterviewScored, Conversation: conversationID, ProfileID: iv.UserProfileID}
		if err := s.bus.Publish(context.WithoutCancel(ctx), evt); err != nil {
			log.Warn("event publish failed", "type", evt.Type, "error", err)
		}
	}
	return row, nil
}

func (s *Scorer) buildPrompt(ctx context.Context, transcript []TranscriptItem, criteria Criteria) string {
	resolved := s.resolver.Resolve(ctx, prompts.Ref{Name: prompts.TranscriptScoringPromptName}, prompts.DefaultTranscriptPrompt(), true)
	return prompts.Fill(resolved.Content, map[string]string{
		"transcript_conversation": FormatTranscript(transcript),
		"technical_weight":        strconv.Itoa(criteria.Technical),
		"communication_weight":    strconv.Itoa(criteria.Communication),
		"problem_solving_weight":  strconv.Itoa(criteria.ProblemSolving),
		"english_weight":          strconv.Itoa(criteria.English),
	})
}

// FormatTranscript renders one line per turn, labelling agent turns as the
// interviewer.
func FormatTranscript(transcript []TranscriptItem) string {
	lines := make([]string, 0, len(transcript))
	for _, item := range transcript {
		label := "**Candidate**"
		if item.Role == "agent" {
			label = "**Interviewer**"
		}
		lines = append(lines, fmt.Sprintf("%s: %s [time_in_call_secs=%d]", label, item.Message, item.TimeInCallSecs))
	}
	return strings.Join(lines, "\n")
}

func decodeScores(data map[string]any) (*Scores, error) {
	const op = "interview.decode_scores"
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errs.Validation(op, err)
	}
	var out Scores
	if err := json.Unmarshal(raw, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errs.Validation(op, fmt.Errorf("field %s: expected integer score", typeErr.Field))
		}
		return nil, errs.Validation(op, err)
	}
	if err := v().Struct(out); err != nil {
		return nil, errs.Validation(op, err)
	}
	return &out, nil
}

// ParseTranscript decodes a stored transcript file: a JSON array of turns.
func ParseTranscript(raw []byte) ([]TranscriptItem, error) {
	var items []TranscriptItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errs.New(errs.KindInvalidInput, "interview.parse_transcript", "transcript is not a JSON array of turns", err)
	}
	return items, nil
}
