package quality

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zen-systems/lexgate/pkg/breaker"
	"github.com/zen-systems/lexgate/pkg/kvcache"
	"github.com/zen-systems/lexgate/pkg/notify"
	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
	"github.com/zen-systems/lexgate/pkg/qstore"
)

func judgeOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	registry, err := provider.NewRegistry([]provider.Profile{
		{Provider: provider.OpenAI, Categories: provider.Categories()},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	table := orchestrator.StrategyTable{
		provider.QualityJudge: {
			Timeout:        2 * time.Second,
			AttemptTimeout: time.Second,
			MaxRetries:     0,
			Providers:      []provider.Provider{provider.OpenAI},
		},
	}
	return orchestrator.New(registry, breaker.NewBank(breaker.DefaultConfig()),
		orchestrator.WithStrategies(table))
}

func staticJudge(response string) JudgeFunc {
	return func(_ context.Context, _ provider.Provider, _ string) (string, error) {
		return response, nil
	}
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (n *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *mockNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func testRequest() CheckRequest {
	return CheckRequest{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		Question:       "Quelle est la prescription en matière civile ?",
		Answer:         "La prescription de droit commun est de cinq ans.",
		Sources: []Source{
			{Title: "Code civil", Excerpt: "Les actions personnelles se prescrivent par cinq ans. Autres dispositions."},
		},
	}
}

func TestScheduleCheckSamplingRate(t *testing.T) {
	// The judge must keep succeeding: repeated failures would open the
	// circuit and stop samples from reaching it, skewing the count.
	var judged atomic.Int64
	judge := func(_ context.Context, _ provider.Provider, _ string) (string, error) {
		judged.Add(1)
		return `{"faithfulness_score":0.9}`, nil
	}
	m := NewMonitor(judgeOrchestrator(t), judge, qstore.NewMemoryStore(), nil, &mockNotifier{})

	r := rand.New(rand.NewPCG(7, 11))
	m.randFloat = r.Float64

	const trials = 10000
	for i := 0; i < trials; i++ {
		m.ScheduleCheck(testRequest())
		m.Wait()
	}

	got := judged.Load()
	// 25% of 10000 with a 5-point tolerance band.
	if got < 2000 || got > 3000 {
		t.Fatalf("sampled %d of %d, want roughly 2500", got, trials)
	}
}

func TestScheduleCheckDeclinesDegraded(t *testing.T) {
	var judged atomic.Int64
	judge := func(_ context.Context, _ provider.Provider, _ string) (string, error) {
		judged.Add(1)
		return `{"faithfulness_score":0.9}`, nil
	}
	m := NewMonitor(judgeOrchestrator(t), judge, qstore.NewMemoryStore(), nil, &mockNotifier{})
	m.randFloat = func() float64 { return 0 }

	req := testRequest()
	req.Degraded = true
	m.ScheduleCheck(req)
	m.Wait()

	if judged.Load() != 0 {
		t.Fatal("degraded operations must never be sampled")
	}
}

func TestScheduleCheckSkipsUnsampled(t *testing.T) {
	var judged atomic.Int64
	judge := func(_ context.Context, _ provider.Provider, _ string) (string, error) {
		judged.Add(1)
		return `{"faithfulness_score":0.9}`, nil
	}
	m := NewMonitor(judgeOrchestrator(t), judge, qstore.NewMemoryStore(), nil, &mockNotifier{})
	m.randFloat = func() float64 { return 0.99 }

	m.ScheduleCheck(testRequest())
	m.Wait()

	if judged.Load() != 0 {
		t.Fatal("unsampled operations must not reach the judge")
	}
}

func TestRunCheckPersistsAndFlagsLowScore(t *testing.T) {
	store := qstore.NewMemoryStore()
	judge := staticJudge(`{"faithfulness_score":0.3,"covered_key_points":1,"total_key_points":4,"reasoning":"answer cites an unrelated article"}`)
	m := NewMonitor(judgeOrchestrator(t), judge, store, nil, &mockNotifier{})
	m.randFloat = func() float64 { return 0 }

	m.ScheduleCheck(testRequest())
	m.Wait()

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if !rec.Flagged {
		t.Fatalf("score %.2f below 0.5 must be flagged", rec.Score)
	}
	if rec.Score != 0.3 {
		t.Fatalf("score = %f, want 0.3", rec.Score)
	}
	if rec.CoveredPoints != 1 || rec.TotalPoints != 4 {
		t.Fatalf("key points = %d/%d, want 1/4", rec.CoveredPoints, rec.TotalPoints)
	}
	if rec.Model != string(provider.OpenAI) {
		t.Fatalf("model = %q, want the serving provider", rec.Model)
	}
	if rec.ID == "" {
		t.Fatal("record must carry a generated id")
	}
}

func TestRunCheckHighScoreNotFlagged(t *testing.T) {
	store := qstore.NewMemoryStore()
	m := NewMonitor(judgeOrchestrator(t), staticJudge(`{"faithfulness_score":0.85}`), store, nil, &mockNotifier{})
	m.randFloat = func() float64 { return 0 }

	m.ScheduleCheck(testRequest())
	m.Wait()

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Flagged {
		t.Fatal("score 0.85 must not be flagged")
	}
}

func TestRunCheckSwallowsJudgeFailure(t *testing.T) {
	store := qstore.NewMemoryStore()
	judge := func(_ context.Context, p provider.Provider, _ string) (string, error) {
		return "", &orchestrator.ProviderError{Provider: p, Status: 500, Err: errors.New("boom")}
	}
	m := NewMonitor(judgeOrchestrator(t), judge, store, nil, &mockNotifier{})
	m.randFloat = func() float64 { return 0 }

	m.ScheduleCheck(testRequest())
	m.Wait()

	if got := len(store.Records()); got != 0 {
		t.Fatalf("records = %d, want 0 after judge failure", got)
	}
}

func seedStore(t *testing.T, store *qstore.MemoryStore, total, flagged int) {
	t.Helper()
	now := time.Now()
	for i := 0; i < total; i++ {
		rec := &qstore.Record{
			ID:        "seed",
			Score:     0.9,
			CreatedAt: now,
		}
		if i < flagged {
			rec.Score = 0.2
			rec.Flagged = true
		}
		if err := store.Insert(context.Background(), rec); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
}

func TestEvaluateAlertFiresAboveThreshold(t *testing.T) {
	store := qstore.NewMemoryStore()
	seedStore(t, store, 10, 3)

	marker, err := kvcache.NewMemory(16)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	notifier := &mockNotifier{}
	m := NewMonitor(judgeOrchestrator(t), nil, store, marker, notifier)

	m.evaluateAlert(context.Background())
	if notifier.sent() != 1 {
		t.Fatalf("alerts sent = %d, want 1 at 30%% flagged rate", notifier.sent())
	}
}

func TestEvaluateAlertAtMostOncePerCooldown(t *testing.T) {
	store := qstore.NewMemoryStore()
	seedStore(t, store, 10, 5)

	marker, err := kvcache.NewMemory(16)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	notifier := &mockNotifier{}
	m := NewMonitor(judgeOrchestrator(t), nil, store, marker, notifier)

	for i := 0; i < 4; i++ {
		m.evaluateAlert(context.Background())
	}
	if notifier.sent() != 1 {
		t.Fatalf("alerts sent = %d, want exactly 1 within the cooldown", notifier.sent())
	}

	// Cooldown expiry clears the marker; the next evaluation may alert again.
	marker.Delete(context.Background(), alertMarkerKey)
	m.evaluateAlert(context.Background())
	if notifier.sent() != 2 {
		t.Fatalf("alerts sent = %d, want 2 after the marker expired", notifier.sent())
	}
}

func TestEvaluateAlertRequiresMinSamples(t *testing.T) {
	store := qstore.NewMemoryStore()
	seedStore(t, store, 4, 4)

	notifier := &mockNotifier{}
	m := NewMonitor(judgeOrchestrator(t), nil, store, nil, notifier)

	m.evaluateAlert(context.Background())
	if notifier.sent() != 0 {
		t.Fatalf("alerts sent = %d, want 0 below the minimum sample count", notifier.sent())
	}
}

func TestEvaluateAlertBelowThresholdStaysQuiet(t *testing.T) {
	store := qstore.NewMemoryStore()
	seedStore(t, store, 10, 1)

	notifier := &mockNotifier{}
	m := NewMonitor(judgeOrchestrator(t), nil, store, nil, notifier)

	m.evaluateAlert(context.Background())
	if notifier.sent() != 0 {
		t.Fatalf("alerts sent = %d, want 0 at 10%% flagged rate", notifier.sent())
	}
}

func TestEvaluateAlertMarkerSetOnlyAfterSend(t *testing.T) {
	store := qstore.NewMemoryStore()
	seedStore(t, store, 10, 5)

	marker, err := kvcache.NewMemory(16)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	notifier := &mockNotifier{err: errors.New("webhook down")}
	m := NewMonitor(judgeOrchestrator(t), nil, store, marker, notifier)

	m.evaluateAlert(context.Background())
	if _, ok := marker.Get(context.Background(), alertMarkerKey); ok {
		t.Fatal("marker must not be set when the send failed")
	}

	notifier.err = nil
	m.evaluateAlert(context.Background())
	if notifier.sent() != 1 {
		t.Fatalf("alerts sent = %d, want 1 once the channel recovered", notifier.sent())
	}
	if _, ok := marker.Get(context.Background(), alertMarkerKey); !ok {
		t.Fatal("marker must be set after a successful send")
	}
}

func TestParseJudgeVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		score   float64
	}{
		{
			name:    "plain json",
			content: `{"faithfulness_score":0.7,"covered_key_points":3,"total_key_points":4}`,
			score:   0.7,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"faithfulness_score\":0.5}\n```",
			score:   0.5,
		},
		{
			name:    "score out of range",
			content: `{"faithfulness_score":1.4}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "the answer looks fine to me",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := parseJudgeVerdict(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if verdict.FaithfulnessScore != tt.score {
				t.Fatalf("score = %f, want %f", verdict.FaithfulnessScore, tt.score)
			}
		})
	}
}

func TestExtractKeyPointsBounded(t *testing.T) {
	sources := make([]Source, 8)
	for i := range sources {
		sources[i] = Source{Title: "Source", Excerpt: "Une phrase complète. Et une autre."}
	}

	points := extractKeyPoints(sources, 5)
	if len(points) != 5 {
		t.Fatalf("key points = %d, want 5", len(points))
	}
	if points[0] != "Source: Une phrase complète." {
		t.Fatalf("unexpected first point: %q", points[0])
	}
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "قضى"
	}
	p := preview(long)
	if len(p) > previewLimit+len("…") {
		t.Fatalf("preview length = %d, want at most %d", len(p), previewLimit+len("…"))
	}
	for _, r := range p {
		if r == '�' {
			t.Fatal("preview split a multibyte rune")
		}
	}
}
