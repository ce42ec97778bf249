package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleSnapshot = `{
  "components": [
    {
      "id": "com.example.OrderSvc",
      "kind": "SERVICE",
      "final": false,
      "methods": 7,
      "initHook": true,
      "injectionPoints": [
        {
          "owner": "com.example.OrderSvc",
          "target": "com.example.PaymentSvc",
          "kind": "CONSTRUCTOR_PARAM",
          "final": true,
          "location": "OrderSvc.java:18"
        }
      ]
    },
    {
      "id": "com.example.PaymentSvc",
      "kind": "SERVICE",
      "injectionPoints": []
    }
  ]
}`

func TestFileProvider_LoadsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	p := NewFileProvider(path)
	if p.Name() != "File" {
		t.Errorf("Unexpected provider name: %s", p.Name())
	}

	components, err := p.Components(context.Background())
	if err != nil {
		t.Fatalf("Components failed: %v", err)
	}
	if len(components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(components))
	}

	order := components[0]
	if order.ID != "com.example.OrderSvc" || !order.InitHook || order.Methods != 7 {
		t.Errorf("Unexpected component: %+v", order)
	}
	if len(order.Points) != 1 {
		t.Fatalf("Expected 1 injection point, got %d", len(order.Points))
	}
	p0 := order.Points[0]
	if p0.Target != "com.example.PaymentSvc" || !p0.Final || p0.Location != "OrderSvc.java:18" {
		t.Errorf("Unexpected injection point: %+v", p0)
	}
}

func TestFileProvider_MissingFile(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := p.Components(context.Background()); err == nil {
		t.Errorf("Expected an error for a missing snapshot")
	}
}

func TestFileProvider_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := NewFileProvider(path).Components(context.Background()); err == nil {
		t.Errorf("Expected a parse error")
	}
}

func TestFileProvider_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileProvider("irrelevant.json").Components(ctx); err == nil {
		t.Errorf("Expected a context error")
	}
}

func TestSnapshotProvider(t *testing.T) {
	s := &Snapshot{}
	if s.Name() != "Snapshot" {
		t.Errorf("Unexpected provider name: %s", s.Name())
	}
	components, err := s.Components(context.Background())
	if err != nil || len(components) != 0 {
		t.Errorf("Expected empty model, got %v, %v", components, err)
	}
}
