package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"loanrisk/internal/handlers"
	"loanrisk/internal/logger"
	"loanrisk/internal/middleware"
	"loanrisk/internal/models"
	"loanrisk/internal/scoring"
	"loanrisk/internal/services"
	"loanrisk/internal/store"
	"loanrisk/internal/validator"
)

const (
	bootstrapPassword = "admin123"
	historyLimit      = 20
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	Store   *store.KV
	Scoring *httptest.Server
	Router  *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory store.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedStore opens an isolated in-memory key-value store.
func setupIsolatedStore(t *testing.T) *store.KV {
	t.Helper()

	dsn := fmt.Sprintf("file:flowtest%d?mode=memory&cache=shared", dbCounter.Add(1))
	kv, err := store.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

// approvingScoringStub always approves with a fixed probability split.
func approvingScoringStub() http.Handler {
	return scoringStub(func(apps int) []map[string]interface{} {
		results := make([]map[string]interface{}, apps)
		for i := range results {
			results[i] = map[string]interface{}{
				"prediction":            "Approved",
				"approval_probability":  0.91,
				"rejection_probability": 0.09,
			}
		}
		return results
	})
}

// rejectingScoringStub always rejects with high risk.
func rejectingScoringStub() http.Handler {
	return scoringStub(func(apps int) []map[string]interface{} {
		results := make([]map[string]interface{}, apps)
		for i := range results {
			results[i] = map[string]interface{}{
				"prediction":            "Rejected",
				"approval_probability":  0.22,
				"rejection_probability": 0.78,
			}
		}
		return results
	})
}

func scoringStub(results func(apps int) []map[string]interface{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		var apps []json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&apps)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results(len(apps)))
	})
}

// setupApp wires the full stack against the given scoring stub. The
// prediction cooldown is disabled (zero interval maps to an unlimited
// rate) so sequential flow steps never trip the limiter; cooldown
// behavior has its own test.
func setupApp(t *testing.T, scoringHandler http.Handler) *testApp {
	t.Helper()
	return setupAppWithCooldown(t, scoringHandler, 0)
}

func setupAppWithCooldown(t *testing.T, scoringHandler http.Handler, cooldown time.Duration) *testApp {
	t.Helper()

	kv := setupIsolatedStore(t)
	upstream := httptest.NewServer(scoringHandler)
	t.Cleanup(upstream.Close)

	identityService := services.NewIdentityService(kv, bootstrapPassword)
	historyService := services.NewHistoryService(kv, historyLimit)
	insightService := services.NewInsightService()
	scoringClient := scoring.NewClient(upstream.URL, "test-key", 2*time.Second, time.Second, cooldown)
	monitor := scoring.NewMonitor(scoringClient, time.Hour)

	authHandler := handlers.NewAuthHandler(identityService)
	predictionHandler := handlers.NewPredictionHandler(scoringClient, historyService, identityService, insightService)
	adminHandler := handlers.NewAdminHandler(identityService, historyService)
	healthHandler := handlers.NewHealthHandler(monitor)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	router.GET("/api/health", healthHandler.Check)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.Session(identityService))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/session", authHandler.Session)
	protected.GET("/profile", authHandler.Profile)

	predictions := protected.Group("/predictions")
	predictions.POST("", predictionHandler.Predict)
	predictions.POST("/batch", predictionHandler.PredictBatch)
	predictions.GET("", predictionHandler.List)
	predictions.GET("/:id", predictionHandler.Get)

	protected.GET("/analytics/summary", predictionHandler.Summary)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:username", adminHandler.UpdateUser)
	admin.POST("/users/:username/promote", adminHandler.Promote)
	admin.POST("/users/:username/demote", adminHandler.Demote)
	admin.POST("/users/:username/activate", adminHandler.Activate)
	admin.POST("/users/:username/deactivate", adminHandler.Deactivate)
	admin.DELETE("/users/:username", adminHandler.DeleteUser)
	admin.GET("/stats", adminHandler.Stats)
	admin.DELETE("/predictions", adminHandler.ClearPredictions)

	return &testApp{Store: kv, Scoring: upstream, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a user and returns nothing; registration does not
// issue a session.
func (app *testApp) registerUser(t *testing.T, username, password string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@test.com","password":%q,"confirm_password":%q,"full_name":"Test User"}`,
		username, username, password, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
}

// loginUser logs in and returns the session token.
func (app *testApp) loginUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// loginAdmin logs in the bootstrap admin.
func (app *testApp) loginAdmin(t *testing.T) string {
	t.Helper()
	return app.loginUser(t, models.BootstrapAdminUsername, bootstrapPassword)
}

// applicationBody is a valid strong application payload.
func applicationBody() string {
	return `{
		"no_of_dependents": 1,
		"education": "Graduate",
		"self_employed": "No",
		"income_annum": 9600000,
		"loan_amount": 2000000,
		"loan_term": 12,
		"cibil_score": 780,
		"residential_assets_value": 5000000,
		"commercial_assets_value": 1500000,
		"luxury_assets_value": 700000,
		"bank_asset_value": 800000
	}`
}
