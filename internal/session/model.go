package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// TaskType is the closed set of tasks the classifier can pick.
type TaskType string

const (
	TaskBondPricing TaskType = "bond_pricing"
	TaskOther       TaskType = "other"
)

// Classification is the classifier's verdict on the original request.
type Classification struct {
	TaskType   TaskType `json:"task_type"`
	NeedsExcel bool     `json:"needs_excel"`
	Reasoning  string   `json:"reasoning"`
}

// Strategy is the closed set of data-gathering decisions.
type Strategy string

const (
	StrategyReadAll Strategy = "read_all"
	StrategyAskUser Strategy = "ask_user"
	StrategySkip    Strategy = "skip"
)

// DataStrategy decides how workbook data is gathered.
type DataStrategy struct {
	Strategy        Strategy `json:"strategy"`
	RangesToRead    []string `json:"ranges_to_read"`
	QuestionForUser *string  `json:"question_for_user,omitempty"`
}

// PhaseName identifies a phase on the wire and in logs.
type PhaseName string

const (
	PhaseClassify       PhaseName = "classify"
	PhaseGetWorkbook    PhaseName = "get_workbook"
	PhaseReadData       PhaseName = "read_data"
	PhaseWaitingForUser PhaseName = "waiting_for_user"
	PhaseExpert         PhaseName = "expert"
)

// Phase is the orchestration step a session is in. The set of
// implementations is closed.
type Phase interface {
	Name() PhaseName
	isPhase()
}

// Classify is the initial phase.
type Classify struct{}

// GetWorkbook waits for the client's get_workbook_info result.
type GetWorkbook struct{}

// ReadData waits for the read_range results of Ranges.
type ReadData struct {
	Ranges []string
}

// WaitingForUser waits for an answer to Question.
type WaitingForUser struct {
	Question string
}

// Expert hands every request to the expert loop. Started gates whether
// incoming tool results belong to the expert.
type Expert struct {
	Started bool
}

func (Classify) Name() PhaseName       { return PhaseClassify }
func (GetWorkbook) Name() PhaseName    { return PhaseGetWorkbook }
func (ReadData) Name() PhaseName       { return PhaseReadData }
func (WaitingForUser) Name() PhaseName { return PhaseWaitingForUser }
func (Expert) Name() PhaseName         { return PhaseExpert }

func (Classify) isPhase()       {}
func (GetWorkbook) isPhase()    {}
func (ReadData) isPhase()       {}
func (WaitingForUser) isPhase() {}
func (Expert) isPhase()         {}

// Session is the server-side record of one orchestrated conversation.
// Absent optional fields mean nothing has been gathered yet.
type Session struct {
	ID              string
	Phase           Phase
	OriginalMessage string
	Classification  *Classification
	WorkbookInfo    any
	DataStrategy    *DataStrategy
	ExcelContext    []any
	History         []engine.ChatMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New creates a session in the Classify phase.
func New(id, message string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:              id,
		Phase:           Classify{},
		OriginalMessage: message,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ExpertStarted reports whether the expert loop has run for this session.
func (s *Session) ExpertStarted() bool {
	e, ok := s.Phase.(Expert)
	return ok && e.Started
}

// record is the flat persisted form of a Session.
type record struct {
	ID              string               `json:"id"`
	Phase           PhaseName            `json:"phase"`
	OriginalMessage string               `json:"original_message"`
	Classification  *Classification      `json:"classification,omitempty"`
	WorkbookInfo    any                  `json:"workbook_info,omitempty"`
	DataStrategy    *DataStrategy        `json:"data_strategy,omitempty"`
	ExcelContext    []any                `json:"excel_context,omitempty"`
	History         []engine.ChatMessage `json:"conversation_history"`
	ExpertStarted   bool                 `json:"expert_started"`
	PendingRanges   []string             `json:"pending_ranges,omitempty"`
	Question        string               `json:"question,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// MarshalJSON encodes the session as a flat record with a phase discriminator.
func (s *Session) MarshalJSON() ([]byte, error) {
	if s.Phase == nil {
		return nil, fmt.Errorf("session %s has no phase", s.ID)
	}
	rec := record{
		ID:              s.ID,
		Phase:           s.Phase.Name(),
		OriginalMessage: s.OriginalMessage,
		Classification:  s.Classification,
		WorkbookInfo:    s.WorkbookInfo,
		DataStrategy:    s.DataStrategy,
		ExcelContext:    s.ExcelContext,
		History:         s.History,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if rec.History == nil {
		rec.History = []engine.ChatMessage{}
	}
	switch p := s.Phase.(type) {
	case ReadData:
		rec.PendingRanges = p.Ranges
	case WaitingForUser:
		rec.Question = p.Question
	case Expert:
		rec.ExpertStarted = p.Started
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a flat record, rejecting unknown phases.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	var phase Phase
	switch rec.Phase {
	case PhaseClassify:
		phase = Classify{}
	case PhaseGetWorkbook:
		phase = GetWorkbook{}
	case PhaseReadData:
		phase = ReadData{Ranges: rec.PendingRanges}
	case PhaseWaitingForUser:
		phase = WaitingForUser{Question: rec.Question}
	case PhaseExpert:
		phase = Expert{Started: rec.ExpertStarted}
	default:
		return fmt.Errorf("unknown session phase %q", rec.Phase)
	}

	*s = Session{
		ID:              rec.ID,
		Phase:           phase,
		OriginalMessage: rec.OriginalMessage,
		Classification:  rec.Classification,
		WorkbookInfo:    rec.WorkbookInfo,
		DataStrategy:    rec.DataStrategy,
		ExcelContext:    rec.ExcelContext,
		History:         rec.History,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	return nil
}
