package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imedwei/gfs-backup/internal/storage"
)

func TestChecker(t *testing.T) {
	checker := NewChecker()

	checker.RegisterCheck("storage", func(ctx context.Context) Check {
		return Check{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Details:   map[string]interface{}{"objects": 3},
		}
	})

	checker.RegisterCheck("scheduler", func(ctx context.Context) Check {
		return Check{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
			Details:   map[string]interface{}{"error": "not running"},
		}
	})

	results := checker.CheckHealth(context.Background())

	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}

	if results["storage"].Status != StatusHealthy {
		t.Errorf("Expected storage to be healthy")
	}

	if results["scheduler"].Status != StatusUnhealthy {
		t.Errorf("Expected scheduler to be unhealthy")
	}
}

// listGateway stubs a storage gateway whose listing either succeeds with a
// fixed set of objects or fails.
type listGateway struct {
	objects []storage.ObjectInfo
	err     error
}

func (g *listGateway) Upload(ctx context.Context, key string, reader io.Reader, metadata map[string]string) error {
	return nil
}

func (g *listGateway) Delete(ctx context.Context, key string) error { return nil }

func (g *listGateway) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.objects, nil
}

func (g *listGateway) LastBackupTime(ctx context.Context, prefix string) (time.Time, error) {
	return time.Time{}, nil
}

func TestGatewayCheck(t *testing.T) {
	tests := []struct {
		name       string
		gateway    *listGateway
		wantStatus Status
	}{
		{
			name: "listable destination",
			gateway: &listGateway{
				objects: []storage.ObjectInfo{{Key: "app-2024-06-01-04-30-00.tar.gz"}},
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "empty destination is healthy",
			gateway: &listGateway{
				objects: nil,
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "unlistable destination",
			gateway: &listGateway{
				err: errors.New("access denied"),
			},
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := GatewayCheck(tt.gateway)(context.Background())

			if check.Status != tt.wantStatus {
				t.Errorf("GatewayCheck() status = %v, want %v", check.Status, tt.wantStatus)
			}
			if tt.wantStatus == StatusUnhealthy && check.Details["error"] == nil {
				t.Error("unhealthy check carries no error detail")
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	checker := NewChecker()

	checker.RegisterCheck("healthy", func(ctx context.Context) Check {
		return Check{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
		}
	})

	checker.RegisterCheck("unhealthy", func(ctx context.Context) Check {
		return Check{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
		}
	})

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := checker.Handler()
	handler.ServeHTTP(rr, req)

	// One unhealthy check drags the whole response to 503.
	if status := rr.Code; status != http.StatusServiceUnavailable {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusServiceUnavailable)
	}

	var response struct {
		Status    Status           `json:"status"`
		Checks    map[string]Check `json:"checks"`
		Timestamp time.Time        `json:"timestamp"`
	}

	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != StatusUnhealthy {
		t.Errorf("Expected overall status to be unhealthy")
	}

	if len(response.Checks) != 2 {
		t.Errorf("Expected 2 checks in response, got %d", len(response.Checks))
	}
}

func TestReadinessHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/ready", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := ReadinessHandler()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := "ready\n"
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v",
			rr.Body.String(), expected)
	}
}

func TestLivenessHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/live", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := LivenessHandler()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := "alive\n"
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v",
			rr.Body.String(), expected)
	}
}
