// Package interpreter turns free-text job search queries into validated
// search requests. A query that names a title and a location but leaves
// out secondary preferences gets exactly one clarification question; the
// reply, or a request to skip, completes the search with defaults.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/comp-collector/internal/llm"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/prompts"
	"github.com/jonathan/comp-collector/internal/schemas"
	"github.com/jonathan/comp-collector/internal/types"
)

// Outcome kinds.
const (
	KindComplete           = "complete"
	KindNeedsClarification = "needs_clarification"
	KindInvalid            = "invalid"
)

// Messages attached to completed outcomes.
const (
	MsgReady         = "Ready to search for jobs!"
	MsgSkipped       = "Perfect! I'll search for jobs using your preferences and defaults."
	MsgProcessed     = "Great! I have processed your information."
	MsgNoPendingTurn = "No pending question for this session. Please start a new search"
)

// SkipHint ends every clarification question.
const SkipHint = "(You can say 'skip', 'no', 'continue', or 'default' for any field you want to use our defaults for)"

const maxQuestionFields = 4

// Outcome is the result of one interpretation turn. Kind selects which
// of the other fields are meaningful.
type Outcome struct {
	Kind          string               `json:"kind"`
	SessionID     string               `json:"session_id,omitempty"`
	Request       *types.SearchRequest `json:"request,omitempty"`
	Message       string               `json:"message,omitempty"`
	Question      string               `json:"question,omitempty"`
	MissingFields []string             `json:"missing_fields,omitempty"`
	Suggestions   []string             `json:"suggestions,omitempty"`
}

// Interpreter runs the query conversation. The LLM client is optional;
// without one every step uses its heuristic fallback.
type Interpreter struct {
	llm      llm.Client
	sessions *SessionStore
	log      *logging.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.log = l
		}
	}
}

// WithSessionStore shares a session store.
func WithSessionStore(s *SessionStore) Option {
	return func(in *Interpreter) {
		if s != nil {
			in.sessions = s
		}
	}
}

// New creates an Interpreter. client may be nil.
func New(client llm.Client, opts ...Option) *Interpreter {
	in := &Interpreter{llm: client, sessions: NewSessionStore(), log: logging.Nop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Sessions exposes the session store.
func (in *Interpreter) Sessions() *SessionStore {
	return in.sessions
}

// Release drops a session once its search has finished.
func (in *Interpreter) Release(sessionID string) {
	if sessionID != "" {
		in.sessions.Evict(sessionID)
	}
}

// Interpret handles the first turn of a search. When sessionID names a
// session waiting on a clarification answer, query is treated as the
// reply.
func (in *Interpreter) Interpret(ctx context.Context, sessionID, query string) Outcome {
	if sess, ok := in.sessions.Get(sessionID); ok && sess.awaitingReply() {
		return in.FollowUp(ctx, sessionID, query)
	}

	if rej := ValidateStructure(query); rej != nil {
		return invalid(sessionID, rej)
	}

	fields := in.extractQuery(ctx, query)
	fields.JobTitle = GuardTitle(query, fields.JobTitle)
	if rej := MissingRequired(fields.JobTitle, fields.Location); rej != nil {
		return invalid(sessionID, rej)
	}
	if rej := CheckLocation(fields.Location); rej != nil {
		return invalid(sessionID, rej)
	}

	sess := in.sessions.Create(sessionID, fields)
	log := in.log.With("session_id", sess.ID)

	missing := fields.Missing()
	if len(missing) == 0 {
		done, _ := in.sessions.Finalize(sess.ID)
		log.Info("query complete", "job_title", fields.JobTitle, "location", fields.Location)
		return complete(done, MsgReady)
	}

	sess.Missing = missing
	sess.FollowUpAsked = true
	in.sessions.Save(sess)
	log.Info("asking for missing details", "missing", missing)
	return Outcome{
		Kind:          KindNeedsClarification,
		SessionID:     sess.ID,
		Question:      in.question(ctx, fields, missing),
		MissingFields: missing,
	}
}

// FollowUp handles the reply to a clarification question.
func (in *Interpreter) FollowUp(ctx context.Context, sessionID, reply string) Outcome {
	sess, ok := in.sessions.Get(sessionID)
	if !ok || !sess.awaitingReply() {
		return Outcome{
			Kind:        KindInvalid,
			SessionID:   sessionID,
			Message:     MsgNoPendingTurn,
			Suggestions: []string{exampleQuery},
		}
	}
	log := in.log.With("session_id", sessionID)

	if in.wantsSkip(ctx, reply) {
		done, _ := in.sessions.Finalize(sessionID)
		log.Info("follow-up skipped, using defaults")
		return complete(done, MsgSkipped)
	}

	extra := in.extractReply(ctx, sess.Missing, reply)
	// The reply only fills secondary fields.
	extra.JobTitle, extra.Location = "", ""
	sess.Fields.merge(extra)
	in.sessions.Save(sess)

	done, _ := in.sessions.Finalize(sessionID)
	log.Info("follow-up processed", "education", done.Fields.EducationLevel, "industry", done.Fields.Industry)
	return complete(done, MsgProcessed)
}

func (in *Interpreter) extractQuery(ctx context.Context, query string) Fields {
	if in.llm != nil {
		f, err := extractWithModel(ctx, in.llm, schemas.SearchQuery, llm.SearchQuerySchema(), query)
		if err == nil {
			return f
		}
		in.log.Warn("query extraction failed, using heuristic", "error", err)
	}
	return HeuristicExtract(query)
}

func (in *Interpreter) extractReply(ctx context.Context, missing []string, reply string) Fields {
	if in.llm != nil {
		text := prompts.MustRender(prompts.FollowUpContext, map[string]string{
			"Fields": strings.Join(fieldNamesOf(missing), ", "),
			"Reply":  reply,
		})
		f, err := extractWithModel(ctx, in.llm, schemas.FollowUp, llm.FollowUpSchema(), text)
		if err == nil {
			return f
		}
		in.log.Warn("reply extraction failed, using heuristic", "error", err)
	}
	return HeuristicReply(reply)
}

var skipWords = regexp.MustCompile(`\b(skip|no|continue|default|defaults|pass|none)\b`)

// wantsSkip asks the model whether the reply declines the question. The
// keyword fallback only counts as a skip when the reply carries no
// recognizable details.
func (in *Interpreter) wantsSkip(ctx context.Context, reply string) bool {
	if strings.TrimSpace(reply) == "" {
		return true
	}
	if in.llm != nil {
		prompt, err := prompts.Render(prompts.SkipIntent, map[string]string{"Reply": reply})
		if err == nil {
			answer, err := in.llm.GenerateContent(ctx, prompt, llm.TierLite)
			if err == nil {
				return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes")
			}
			in.log.Warn("skip intent check failed, using keywords", "error", err)
		}
	}
	return skipWords.MatchString(strings.ToLower(reply)) && HeuristicReply(reply).empty()
}

func (in *Interpreter) question(ctx context.Context, fields Fields, missing []string) string {
	names := fieldNamesOf(missing)
	if len(names) > maxQuestionFields {
		names = names[:maxQuestionFields]
	}
	if in.llm != nil {
		prompt, err := prompts.Render(prompts.FollowUpQuestion, map[string]string{
			"JobTitle": fields.JobTitle,
			"Location": fields.Location,
			"Fields":   strings.Join(names, ", "),
		})
		if err == nil {
			q, err := in.llm.GenerateContent(ctx, prompt, llm.TierLite)
			if q = strings.TrimSpace(q); err == nil && q != "" {
				return withSkipHint(q)
			}
			if err != nil {
				in.log.Warn("question generation failed, using template", "error", err)
			}
		}
	}
	return QuestionFor(missing)
}

// QuestionFor builds the template clarification question for the missing
// fields, naming at most four of them.
func QuestionFor(missing []string) string {
	names := fieldNamesOf(missing)
	if len(names) > maxQuestionFields {
		names = names[:maxQuestionFields]
	}
	var list string
	switch len(names) {
	case 0:
		list = "preferences"
	case 1:
		list = names[0]
	case 2:
		list = names[0] + " and " + names[1]
	default:
		list = strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
	return withSkipHint(fmt.Sprintf("Could you please share your %s?", list))
}

func withSkipHint(q string) string {
	if strings.Contains(q, SkipHint) {
		return q
	}
	return q + " " + SkipHint
}

func fieldNamesOf(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = FieldName(f)
	}
	return out
}

func invalid(sessionID string, rej *Rejection) Outcome {
	return Outcome{
		Kind:        KindInvalid,
		SessionID:   sessionID,
		Message:     rej.Message,
		Suggestions: rej.Suggestions,
	}
}

func complete(sess Session, message string) Outcome {
	f := sess.Fields
	req := &types.SearchRequest{
		JobTitle:       f.JobTitle,
		Location:       f.Location,
		EducationLevel: f.EducationLevel,
		Industry:       f.Industry,
		CompanySize:    f.CompanySize,
		Certifications: f.Certifications,
	}
	if f.Experience != nil {
		years := *f.Experience
		req.ExperienceYears = &years
	}
	return Outcome{
		Kind:      KindComplete,
		SessionID: sess.ID,
		Request:   req,
		Message:   message,
	}
}
