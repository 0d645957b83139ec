package chat

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ragworks/finchat/internal/domain"
	"github.com/ragworks/finchat/internal/ragapi"
)

type fakeBackend struct {
	classify func(ctx context.Context, message string) (*ragapi.ClassifyResult, error)
	retrieve func(ctx context.Context, message string, cls *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error)
	generate func(ctx context.Context, message string, ret *ragapi.RetrieveResult) (*ragapi.GenerateResult, error)

	classifyCalls atomic.Int32
	retrieveCalls atomic.Int32
	generateCalls atomic.Int32
}

func (f *fakeBackend) Classify(ctx context.Context, message string) (*ragapi.ClassifyResult, error) {
	f.classifyCalls.Add(1)
	if f.classify == nil {
		return classifyOK("amazon", "amazon", "google"), nil
	}
	return f.classify(ctx, message)
}

func (f *fakeBackend) Retrieve(ctx context.Context, message string, cls *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
	f.retrieveCalls.Add(1)
	if f.retrieve == nil {
		return retrieveOK(), nil
	}
	return f.retrieve(ctx, message, cls)
}

func (f *fakeBackend) Generate(ctx context.Context, message string, ret *ragapi.RetrieveResult) (*ragapi.GenerateResult, error) {
	f.generateCalls.Add(1)
	if f.generate == nil {
		return generateOK("R", "C"), nil
	}
	return f.generate(ctx, message, ret)
}

func classifyOK(index string, companies ...string) *ragapi.ClassifyResult {
	return &ragapi.ClassifyResult{Index: index, Companies: companies, HasIndex: true, HasCompanies: true}
}

func retrieveOK() *ragapi.RetrieveResult {
	return &ragapi.RetrieveResult{HasResponse: true}
}

func generateOK(result, context string) *ragapi.GenerateResult {
	return &ragapi.GenerateResult{Result: result, Context: context, HasResult: true, HasContext: true}
}

func newTestOrchestrator(backend Backend) *Orchestrator {
	return New("test-session", backend, 5*time.Second)
}

func botMessages(s domain.Session) []domain.Message {
	var out []domain.Message
	for _, m := range s.Messages {
		if m.Role == domain.RoleBot {
			out = append(out, m)
		}
	}
	return out
}

func TestAppendSuccess(t *testing.T) {
	backend := &fakeBackend{}
	o := newTestOrchestrator(backend)

	var sawLoading bool
	o.SetSink(func(s domain.Session) {
		if s.Loading {
			sawLoading = true
		}
	})

	final, err := o.Append(context.Background(), "How did Amazon do?")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if final.Content != "R" || final.Context != "C" {
		t.Errorf("final message = %q / %q, want R / C", final.Content, final.Context)
	}
	if final.Role != domain.RoleBot {
		t.Errorf("final role = %q, want bot", final.Role)
	}
	val := final.Validation
	if val == nil {
		t.Fatal("final message has no validation snapshot")
	}
	for i, status := range val.Steps {
		if status != domain.StatusCompleted {
			t.Errorf("stage %d = %q, want completed", i, status)
		}
	}
	if val.Info != "Validation successful!" {
		t.Errorf("info = %q", val.Info)
	}
	if val.Company != "amazon" {
		t.Errorf("company = %q, want amazon", val.Company)
	}

	snap := o.Snapshot()
	if snap.Loading {
		t.Error("loading still true after finalization")
	}
	if !snap.WorkshopComplete {
		t.Error("workshop complete not set on clean success")
	}
	if !sawLoading {
		t.Error("sink never observed the loading state")
	}
	if got := len(botMessages(snap)); got != 1 {
		t.Errorf("final bot messages = %d, want exactly 1", got)
	}
	if len(snap.Messages) != 2 {
		t.Errorf("messages = %d, want user + bot", len(snap.Messages))
	}
}

func TestClassifyTransportFailure(t *testing.T) {
	backend := &fakeBackend{
		classify: func(context.Context, string) (*ragapi.ClassifyResult, error) {
			return nil, ragapi.ErrTransport
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if backend.retrieveCalls.Load() != 0 || backend.generateCalls.Load() != 0 {
		t.Error("retrieve/generate invoked after classify transport failure")
	}
	if final.Content != "Validation failed, no answer received." {
		t.Errorf("content = %q", final.Content)
	}
	if final.Context != "Validation failed, no context received." {
		t.Errorf("context = %q", final.Context)
	}
	val := final.Validation
	if val.Steps[domain.StageClassification] != domain.StatusFailed {
		t.Errorf("stage1 = %q, want failed", val.Steps[domain.StageClassification])
	}
	if !strings.Contains(val.Info, "Classification Lambda") {
		t.Errorf("info = %q, want classification lambda diagnostic", val.Info)
	}
	for _, s := range val.Steps[1:] {
		if s != domain.StatusWaiting {
			t.Errorf("later stage = %q, want waiting", s)
		}
	}
	if o.Snapshot().Loading {
		t.Error("loading still true after failure")
	}
	if got := len(botMessages(o.Snapshot())); got != 1 {
		t.Errorf("final bot messages = %d, want exactly 1", got)
	}
}

func TestClassifyUnresolvedCompany(t *testing.T) {
	backend := &fakeBackend{
		classify: func(context.Context, string) (*ragapi.ClassifyResult, error) {
			return classifyOK("tesla", "amazon", "google"), nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "how is tesla doing")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if backend.retrieveCalls.Load() != 0 || backend.generateCalls.Load() != 0 {
		t.Error("retrieve/generate invoked after unresolved company")
	}
	if !strings.Contains(final.Content, "Amazon or Google.") {
		t.Errorf("content = %q, want the joined company list", final.Content)
	}
	if final.Validation.Steps[domain.StageClassification] != domain.StatusFailed {
		t.Error("stage1 not failed")
	}
	if !strings.Contains(final.Validation.Info, "Question Error") {
		t.Errorf("info = %q", final.Validation.Info)
	}
}

func TestClassifyMissingIndex(t *testing.T) {
	backend := &fakeBackend{
		classify: func(context.Context, string) (*ragapi.ClassifyResult, error) {
			return &ragapi.ClassifyResult{Companies: []string{"amazon"}, HasCompanies: true}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if backend.retrieveCalls.Load() != 0 {
		t.Error("retrieve invoked on malformed classify body")
	}
	if !strings.Contains(final.Validation.Info, "'index' key") {
		t.Errorf("info = %q, want missing index diagnostic", final.Validation.Info)
	}
}

func TestRetrieveFatalError(t *testing.T) {
	backend := &fakeBackend{
		retrieve: func(context.Context, string, *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
			return &ragapi.RetrieveResult{
				HasResponse:      true,
				Error:            "boto3 not implemented",
				ErrorExplication: "X",
			}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if backend.generateCalls.Load() != 0 {
		t.Error("generate invoked after fatal retrieval error")
	}
	if final.Validation.Info != "RAG Error: X" {
		t.Errorf("info = %q, want RAG Error: X", final.Validation.Info)
	}
	if final.Validation.Steps[domain.StageRetrieval] != domain.StatusFailed {
		t.Error("stage2 not failed")
	}
}

func TestRetrieveMissingResponseKey(t *testing.T) {
	backend := &fakeBackend{
		retrieve: func(context.Context, string, *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
			return &ragapi.RetrieveResult{}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if backend.generateCalls.Load() != 0 {
		t.Error("generate invoked on malformed retrieve body")
	}
	if !strings.Contains(final.Validation.Info, "'response' key") {
		t.Errorf("info = %q, want missing response diagnostic", final.Validation.Info)
	}
}

func TestRetrieveTransportFailure(t *testing.T) {
	backend := &fakeBackend{
		retrieve: func(context.Context, string, *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
			return nil, ragapi.ErrTransport
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if backend.generateCalls.Load() != 0 {
		t.Error("generate invoked after retrieve transport failure")
	}
	if !strings.Contains(final.Validation.Info, "Retrieval Lambda") {
		t.Errorf("info = %q", final.Validation.Info)
	}
	if o.Snapshot().Loading {
		t.Error("loading still true")
	}
}

func TestGenerateWarning(t *testing.T) {
	backend := &fakeBackend{
		generate: func(context.Context, string, *ragapi.RetrieveResult) (*ragapi.GenerateResult, error) {
			return &ragapi.GenerateResult{
				Result:           "partial answer",
				Context:          "real context",
				HasResult:        true,
				HasContext:       true,
				Error:            "prompt does not contain context",
				ErrorExplication: "add the context placeholder",
			}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if final.Content != "partial answer" {
		t.Errorf("content = %q, answer should still be shown", final.Content)
	}
	if final.Context != "Validation failed, no context received." {
		t.Errorf("context = %q, want the placeholder", final.Context)
	}
	val := final.Validation
	if val.Steps[domain.StagePromptEngineering] != domain.StatusWarning {
		t.Errorf("stage3 = %q, want warning", val.Steps[domain.StagePromptEngineering])
	}
	if val.Info != "Warning: add the context placeholder" {
		t.Errorf("info = %q", val.Info)
	}
	if o.Snapshot().WorkshopComplete {
		t.Error("workshop complete set on warning finish")
	}
}

func TestRetrievalAdvisoryOutranksGeneration(t *testing.T) {
	backend := &fakeBackend{
		retrieve: func(context.Context, string, *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
			return &ragapi.RetrieveResult{
				HasResponse:      true,
				Error:            "chunk configuration not optimal",
				ErrorExplication: "chunks too small",
			}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	val := final.Validation
	if val.Steps[domain.StageChunking] != domain.StatusWarning {
		t.Errorf("stage4 = %q, want warning", val.Steps[domain.StageChunking])
	}
	if val.Steps[domain.StageAccuracy] != domain.StatusWaiting {
		t.Errorf("stage5 = %q, want waiting (unresolved)", val.Steps[domain.StageAccuracy])
	}
	if val.Info != "Warning: chunks too small" {
		t.Errorf("info = %q", val.Info)
	}
	if o.Snapshot().WorkshopComplete {
		t.Error("workshop complete set despite unresolved retrieval advisory")
	}
	if final.Content != "R" {
		t.Errorf("content = %q, the answer is still returned", final.Content)
	}
}

func TestGenerationAdvisoryLeavesOptionalTask(t *testing.T) {
	backend := &fakeBackend{
		generate: func(context.Context, string, *ragapi.RetrieveResult) (*ragapi.GenerateResult, error) {
			res := generateOK("R", "C")
			res.Error = "tempurature not optimal"
			res.ErrorExplication = "lower the temperature"
			return res, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	val := final.Validation
	if val.Steps[domain.StageChunking] != domain.StatusCompleted {
		t.Errorf("stage4 = %q, want completed", val.Steps[domain.StageChunking])
	}
	if val.Steps[domain.StageAccuracy] != domain.StatusOptional {
		t.Errorf("stage5 = %q, want optional", val.Steps[domain.StageAccuracy])
	}
	want := "Validation successful! One optional task left: lower the temperature"
	if val.Info != want {
		t.Errorf("info = %q, want %q", val.Info, want)
	}
	if !o.Snapshot().WorkshopComplete {
		t.Error("workshop complete not set")
	}
}

func TestGenerateMissingResult(t *testing.T) {
	backend := &fakeBackend{
		generate: func(context.Context, string, *ragapi.RetrieveResult) (*ragapi.GenerateResult, error) {
			return &ragapi.GenerateResult{Context: "C", HasContext: true}, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "q")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.Contains(final.Validation.Info, "'result' key") {
		t.Errorf("info = %q, want missing result diagnostic", final.Validation.Info)
	}
	if final.Validation.Steps[domain.StagePromptEngineering] != domain.StatusFailed {
		t.Error("stage3 not failed")
	}
}

func TestChartAttachedFromAnnualData(t *testing.T) {
	backend := &fakeBackend{
		retrieve: func(context.Context, string, *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error) {
			res := retrieveOK()
			res.Series = &ragapi.FinancialSeries{
				Label: "Amazon Revenue",
				Annual: []ragapi.AnnualRecord{
					{Date: "2021", Value: "$469.82 Billion", Growth: "21.70"},
					{Date: "2022", Value: "$513.98 Billion", Growth: "9.40"},
				},
			}
			return res, nil
		},
	}
	o := newTestOrchestrator(backend)

	final, err := o.Append(context.Background(), "revenue?")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	chart := final.Chart
	if chart == nil {
		t.Fatal("no chart attached")
	}
	if chart.Title != "Amazon Revenue" {
		t.Errorf("title = %q", chart.Title)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(chart.Series))
	}
	if chart.Series[0].Kind != domain.SeriesBar || chart.Series[1].Kind != domain.SeriesLine {
		t.Error("series kinds wrong")
	}
	if !chart.Series[1].SecondaryAxis {
		t.Error("growth series not on secondary axis")
	}
	if got := chart.Series[0].Y[0]; got != 469.82e9 {
		t.Errorf("normalized value = %v, want 4.6982e+11", got)
	}
}

func TestTurnInFlightGate(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		classify: func(ctx context.Context, _ string) (*ragapi.ClassifyResult, error) {
			<-release
			return classifyOK("amazon", "amazon"), nil
		},
	}
	o := newTestOrchestrator(backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Append(context.Background(), "first")
	}()

	// Wait for the first turn to take the gate.
	deadline := time.After(2 * time.Second)
	for !o.Snapshot().Loading {
		select {
		case <-deadline:
			t.Fatal("first turn never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := o.Append(context.Background(), "second"); !errors.Is(err, domain.ErrTurnInFlight) {
		t.Errorf("concurrent Append err = %v, want ErrTurnInFlight", err)
	}
	if _, err := o.Retry(context.Background()); !errors.Is(err, domain.ErrTurnInFlight) {
		t.Errorf("concurrent Retry err = %v, want ErrTurnInFlight", err)
	}

	close(release)
	<-done

	if o.Snapshot().Loading {
		t.Error("loading still true after turn finished")
	}
}

func TestAppendEmptyMessage(t *testing.T) {
	o := newTestOrchestrator(&fakeBackend{})
	if _, err := o.Append(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if len(o.Snapshot().Messages) != 0 {
		t.Error("blank input still appended messages")
	}
}

func TestResetKeepsWorkshopComplete(t *testing.T) {
	o := newTestOrchestrator(&fakeBackend{})
	if _, err := o.Append(context.Background(), "q"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !o.Snapshot().WorkshopComplete {
		t.Fatal("precondition: workshop complete")
	}

	o.Reset()

	snap := o.Snapshot()
	if len(snap.Messages) != 0 {
		t.Errorf("messages = %d after reset, want 0", len(snap.Messages))
	}
	if !snap.WorkshopComplete {
		t.Error("reset cleared the workshop complete flag")
	}
}

func TestRetryReplaysLastQuestion(t *testing.T) {
	var lastMessage string
	backend := &fakeBackend{
		classify: func(_ context.Context, message string) (*ragapi.ClassifyResult, error) {
			lastMessage = message
			return classifyOK("amazon", "amazon"), nil
		},
	}
	o := newTestOrchestrator(backend)

	if _, err := o.Append(context.Background(), "original question"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before := o.Snapshot()
	oldUserID := before.Messages[0].ID

	var firstRetrySnapshot *domain.Session
	o.SetSink(func(s domain.Session) {
		if firstRetrySnapshot == nil {
			snap := s
			firstRetrySnapshot = &snap
		}
	})

	final, err := o.Retry(context.Background())
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}

	if lastMessage != "original question" {
		t.Errorf("replayed message = %q", lastMessage)
	}
	if backend.classifyCalls.Load() != 2 {
		t.Errorf("classify calls = %d, want 2", backend.classifyCalls.Load())
	}

	// The old pair is dropped before the new turn's messages are appended.
	if firstRetrySnapshot == nil {
		t.Fatal("sink never fired during retry")
	}
	if got := len(firstRetrySnapshot.Messages); got != 2 {
		t.Errorf("messages after retry begin = %d, want 2", got)
	}
	if firstRetrySnapshot.Messages[0].ID == oldUserID {
		t.Error("old user message survived the retry")
	}
	if firstRetrySnapshot.Messages[0].Content != "original question" {
		t.Errorf("new user content = %q", firstRetrySnapshot.Messages[0].Content)
	}

	after := o.Snapshot()
	if len(after.Messages) != 2 {
		t.Errorf("messages after retry = %d, want 2", len(after.Messages))
	}
	if final.Role != domain.RoleBot {
		t.Error("retry produced no final bot message")
	}
}

func TestRetryReplaysCurrentLastTurn(t *testing.T) {
	var replayed []string
	backend := &fakeBackend{
		classify: func(_ context.Context, message string) (*ragapi.ClassifyResult, error) {
			replayed = append(replayed, message)
			return classifyOK("amazon", "amazon"), nil
		},
	}
	o := newTestOrchestrator(backend)

	if _, err := o.Append(context.Background(), "first question"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := o.Append(context.Background(), "second question"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := o.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	if got := replayed[len(replayed)-1]; got != "second question" {
		t.Errorf("replayed = %q, want the most recent question", got)
	}

	// Only the trailing pair is replaced; the first turn survives.
	snap := o.Snapshot()
	if len(snap.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(snap.Messages))
	}
	if snap.Messages[0].Content != "first question" {
		t.Errorf("messages[0] = %q", snap.Messages[0].Content)
	}
	if snap.Messages[2].Content != "second question" {
		t.Errorf("messages[2] = %q", snap.Messages[2].Content)
	}
}

func TestRetryOnEmptyHistory(t *testing.T) {
	o := newTestOrchestrator(&fakeBackend{})
	if _, err := o.Retry(context.Background()); !errors.Is(err, domain.ErrNothingToRetry) {
		t.Errorf("err = %v, want ErrNothingToRetry", err)
	}
	if len(o.Snapshot().Messages) != 0 {
		t.Error("retry on empty history mutated state")
	}
}

func TestRetryAfterReset(t *testing.T) {
	o := newTestOrchestrator(&fakeBackend{})
	if _, err := o.Append(context.Background(), "q"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	o.Reset()

	if _, err := o.Retry(context.Background()); !errors.Is(err, domain.ErrNothingToRetry) {
		t.Errorf("err = %v, want ErrNothingToRetry", err)
	}
}

func TestRegistrySessions(t *testing.T) {
	r := NewRegistry(&fakeBackend{}, time.Second)

	a := r.GetOrCreate("tg:1")
	b := r.GetOrCreate("tg:1")
	if a != b {
		t.Error("GetOrCreate returned different orchestrators for the same key")
	}

	c := r.Create()
	if c.ID() == "" {
		t.Error("Create returned empty session ID")
	}
	got, ok := r.Get(c.ID())
	if !ok || got != c {
		t.Error("Get did not return the created session")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get found a session that was never created")
	}
}
