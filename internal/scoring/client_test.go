package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loanrisk/internal/models"
	"loanrisk/internal/testutil"
)

// newTestClient builds a client against the test server with a cooldown
// short enough that sequential subtest calls never trip the limiter.
func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, "test-key", 2*time.Second, time.Second, time.Millisecond)
}

func scoringStub(t *testing.T, results []Result) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("expected path /predict, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected api key header test-key, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}

		var apps []models.LoanApplication
		if err := json.NewDecoder(r.Body).Decode(&apps); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if len(apps) != len(results) {
			t.Errorf("expected %d applications, got %d", len(results), len(apps))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}
}

func TestPredict(t *testing.T) {
	t.Run("single_application", func(t *testing.T) {
		expected := []Result{{Prediction: models.DecisionApproved, ApprovalProbability: 0.91, RejectionProbability: 0.09}}
		server := httptest.NewServer(scoringStub(t, expected))
		defer server.Close()

		client := newTestClient(server.URL)
		results, err := client.Predict(context.Background(), []models.LoanApplication{testutil.StrongApplication()})
		testutil.AssertNoError(t, err)

		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Prediction != models.DecisionApproved {
			t.Errorf("expected Approved, got %s", results[0].Prediction)
		}
		if results[0].ApprovalProbability != 0.91 {
			t.Errorf("expected approval probability 0.91, got %v", results[0].ApprovalProbability)
		}
	})

	t.Run("batch_preserves_order", func(t *testing.T) {
		expected := []Result{
			{Prediction: models.DecisionApproved, ApprovalProbability: 0.9, RejectionProbability: 0.1},
			{Prediction: models.DecisionRejected, ApprovalProbability: 0.2, RejectionProbability: 0.8},
		}
		server := httptest.NewServer(scoringStub(t, expected))
		defer server.Close()

		client := newTestClient(server.URL)
		results, err := client.Predict(context.Background(), []models.LoanApplication{
			testutil.StrongApplication(),
			testutil.WeakApplication(),
		})
		testutil.AssertNoError(t, err)

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Prediction != models.DecisionApproved || results[1].Prediction != models.DecisionRejected {
			t.Errorf("results out of order: %+v", results)
		}
	})

	t.Run("empty_sequence", func(t *testing.T) {
		client := newTestClient("http://unused.invalid")
		_, err := client.Predict(context.Background(), nil)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("error_status_with_detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid api key"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Predict(context.Background(), []models.LoanApplication{testutil.StrongApplication()})
		testutil.AssertAppError(t, err, "SCORING_UNAVAILABLE")
	})

	t.Run("result_count_mismatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]Result{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Predict(context.Background(), []models.LoanApplication{testutil.StrongApplication()})
		testutil.AssertAppError(t, err, "SCORING_UNAVAILABLE")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 50*time.Millisecond, time.Second, time.Millisecond)
		_, err := client.Predict(context.Background(), []models.LoanApplication{testutil.StrongApplication()})
		testutil.AssertAppError(t, err, "SCORING_TIMEOUT")
	})

	t.Run("connection_refused", func(t *testing.T) {
		// A server that is already closed refuses connections.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := newTestClient(server.URL)
		_, err := client.Predict(context.Background(), []models.LoanApplication{testutil.StrongApplication()})
		testutil.AssertAppError(t, err, "SCORING_UNAVAILABLE")
	})
}

func TestPredictCooldown(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode([]Result{{Prediction: models.DecisionApproved, ApprovalProbability: 0.9, RejectionProbability: 0.1}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 2*time.Second, time.Second, 3*time.Second)

	// Drive the limiter with a fake clock so the test takes no wall time.
	base := time.Now()
	clock := base
	client.now = func() time.Time { return clock }

	apps := []models.LoanApplication{testutil.StrongApplication()}

	t.Run("second_call_one_second_later_is_rejected_locally", func(t *testing.T) {
		_, err := client.Predict(context.Background(), apps)
		testutil.AssertNoError(t, err)
		if calls != 1 {
			t.Fatalf("expected 1 upstream call, got %d", calls)
		}

		clock = base.Add(time.Second)
		_, err = client.Predict(context.Background(), apps)
		testutil.AssertAppError(t, err, "RATE_LIMITED")
		if calls != 1 {
			t.Errorf("rate-limited call must not reach the network, got %d upstream calls", calls)
		}
	})

	t.Run("call_after_cooldown_proceeds", func(t *testing.T) {
		clock = base.Add(4 * time.Second)
		_, err := client.Predict(context.Background(), apps)
		testutil.AssertNoError(t, err)
		if calls != 2 {
			t.Errorf("expected 2 upstream calls, got %d", calls)
		}
	})
}

func TestCheckHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				t.Errorf("expected root path, got %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		testutil.AssertNoError(t, client.CheckHealth(context.Background()))
	})

	t.Run("unhealthy_status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		testutil.AssertAppError(t, client.CheckHealth(context.Background()), "SCORING_UNAVAILABLE")
	})

	t.Run("probe_timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 2*time.Second, 50*time.Millisecond, time.Millisecond)
		testutil.AssertAppError(t, client.CheckHealth(context.Background()), "SCORING_TIMEOUT")
	})
}

func TestMonitor(t *testing.T) {
	t.Run("records_online_state", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		monitor := NewMonitor(newTestClient(server.URL), time.Hour)
		monitor.probe(context.Background())

		status := monitor.Status()
		if !status.Online {
			t.Error("expected monitor to report online")
		}
		if status.CheckedAt.IsZero() {
			t.Error("expected check time to be recorded")
		}
	})

	t.Run("records_offline_state", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		monitor := NewMonitor(newTestClient(server.URL), time.Hour)
		monitor.probe(context.Background())

		if monitor.Status().Online {
			t.Error("expected monitor to report offline")
		}
	})

	t.Run("zero_value_before_first_probe", func(t *testing.T) {
		monitor := NewMonitor(newTestClient("http://unused.invalid"), time.Hour)
		status := monitor.Status()
		if status.Online {
			t.Error("expected offline before first probe")
		}
		if !status.CheckedAt.IsZero() {
			t.Error("expected zero check time before first probe")
		}
	})
}
