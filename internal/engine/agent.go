package engine

import (
	"context"
	"regexp"
	"strings"
	"sync"
)

// Session ties one conversation together: the ingestion pipeline, the
// retriever, and the running memory. Questions are answered one at a time so
// the memory a question sees is the memory its answer is appended to.
type Session struct {
	askMu     sync.Mutex
	ingestor  *Ingestor
	retriever *Retriever
	store     TranscriptStore
	memory    *ConversationMemory
}

func NewSession(ingestor *Ingestor, retriever *Retriever, store TranscriptStore) *Session {
	return &Session{
		ingestor:  ingestor,
		retriever: retriever,
		store:     store,
		memory:    NewConversationMemory(cfg.MemoryMaxTurns),
	}
}

// Intent is what a piece of free-form input asks the system to do.
type Intent string

const (
	IntentIngest     Intent = "ingest"
	IntentQuestion   Intent = "question"
	IntentUnresolved Intent = "unresolved"
)

var schemeRE = regexp.MustCompile(`https?://`)

// ClassifyInput decides whether input is content to index or a question to
// answer. Anything carrying a URL is an ingest request; non-empty text without
// one is a question; blank input resolves to nothing.
func ClassifyInput(input string) Intent {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return IntentUnresolved
	}
	if schemeRE.MatchString(trimmed) {
		return IntentIngest
	}
	return IntentQuestion
}

// InputResult is the outcome of HandleInput. Exactly one of Report and Answer
// is set, matching Intent.
type InputResult struct {
	Intent Intent        `json:"intent"`
	Report *IngestReport `json:"report,omitempty"`
	Answer *AskOutput    `json:"answer,omitempty"`
}

// HandleInput routes free-form input to ingestion or question answering.
func (s *Session) HandleInput(ctx context.Context, input string) (*InputResult, error) {
	switch ClassifyInput(input) {
	case IntentIngest:
		report, err := s.Ingest(ctx, input, false)
		if err != nil {
			return nil, err
		}
		return &InputResult{Intent: IntentIngest, Report: report}, nil
	case IntentQuestion:
		answer, err := s.Ask(ctx, input, 0)
		if err != nil {
			return nil, err
		}
		return &InputResult{Intent: IntentQuestion, Answer: answer}, nil
	default:
		return nil, Errf(KindUnresolvedIntent, "input is neither a URL nor a question")
	}
}

// Ingest indexes everything the input URL refers to. Ingestion does not touch
// conversation memory and runs concurrently with questions.
func (s *Session) Ingest(ctx context.Context, rawURL string, force bool) (*IngestReport, error) {
	return s.ingestor.IngestURL(ctx, rawURL, force)
}

// Ask answers a question from the indexed transcripts and the conversation so
// far. When nothing relevant is indexed the answer is a fixed refusal, and the
// exchange still lands in memory so follow-ups can refer back to it.
func (s *Session) Ask(ctx context.Context, question string, topK int) (*AskOutput, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, Errf(KindUnresolvedIntent, "empty question")
	}
	IncrQuestions()

	s.askMu.Lock()
	defer s.askMu.Unlock()

	chunks, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, Classify(err)
	}

	out := &AskOutput{Question: question}
	if len(chunks) == 0 {
		out.Answer = noInfoAnswer
	} else {
		answer, err := ComposeAnswer(ctx, question, chunks, s.memory.Turns())
		if err != nil {
			return nil, Classify(err)
		}
		out.Answer = answer
		out.Sources = make([]ChunkSource, len(chunks))
		for i, c := range chunks {
			out.Sources[i] = ChunkSource{
				VideoID:    c.Chunk.VideoID,
				ChunkIndex: c.Chunk.ChunkIndex,
				Score:      c.Score,
				StartSec:   c.Chunk.StartSec,
			}
		}
	}

	s.memory.Append("user", question)
	s.memory.Append("agent", out.Answer)
	return out, nil
}

// Reset clears the conversation memory. The transcript index is untouched.
func (s *Session) Reset() {
	s.memory.Reset()
}

// Status reports the number of indexed videos and retained memory turns.
func (s *Session) Status(ctx context.Context) (*StatusOutput, error) {
	videos, err := s.store.Count(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	return &StatusOutput{Videos: videos, Turns: s.memory.Len()}, nil
}
