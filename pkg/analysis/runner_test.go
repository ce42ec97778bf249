package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/tandberg/decycle/pkg/model"
	"github.com/tandberg/decycle/pkg/provider"
	"github.com/tandberg/decycle/pkg/pubsub"
)

func snapshot(deps map[string][]string) *provider.Snapshot {
	var items []model.Component
	for id, targets := range deps {
		c := model.Component{ID: id, Kind: model.KindService, Methods: 2}
		for n, tgt := range targets {
			c.Points = append(c.Points, model.InjectionPoint{
				Owner: id, Target: tgt, Kind: model.InjectionField,
				Location: fmt.Sprintf("%s.java:%d", id, n+1),
			})
		}
		items = append(items, c)
	}
	return &provider.Snapshot{Items: items}
}

func TestRun_CompleteCycleAnalysis(t *testing.T) {
	r := NewRunner(snapshot(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
		"D": {},
	}), nil)

	res, err := r.Run(context.Background(), Options{Reason: "test"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Status != StatusComplete {
		t.Errorf("Expected COMPLETE, got %s", res.Status)
	}
	if res.RunID == "" {
		t.Errorf("Expected a run id")
	}
	if res.Stats.Components != 4 || res.Stats.Edges != 3 {
		t.Errorf("Unexpected stats: %+v", res.Stats)
	}
	if len(res.SCCs) != 1 || len(res.Cycles) != 1 {
		t.Fatalf("Expected 1 SCC and 1 cycle, got %d and %d", len(res.SCCs), len(res.Cycles))
	}
	if got := res.CycleIDs(res.Cycles[0]); fmt.Sprint(got) != "[A B C]" {
		t.Errorf("Unexpected cycle: %v", got)
	}
	if len(res.Plan.Cuts) != 1 {
		t.Fatalf("Expected 1 planned cut, got %d", len(res.Plan.Cuts))
	}
	if !res.Plan.Acyclic() {
		t.Errorf("Field-injection cycle should resolve without manual review")
	}
}

func TestRun_AcyclicGraph(t *testing.T) {
	r := NewRunner(snapshot(map[string][]string{
		"A": {"B"},
		"B": {},
	}), nil)

	res, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.SCCs) != 0 || len(res.Cycles) != 0 || len(res.Plan.Cuts) != 0 {
		t.Errorf("Expected an empty analysis for an acyclic graph, got %+v", res.Summary())
	}
}

func TestRun_ConstructionErrorIsFatal(t *testing.T) {
	p := &provider.Snapshot{Items: []model.Component{
		{ID: "A"}, {ID: "A"},
	}}
	_, err := NewRunner(p, nil).Run(context.Background(), Options{})
	if err == nil {
		t.Fatalf("Expected a graph construction error")
	}
	var gce *model.GraphConstructionError
	if !errors.As(err, &gce) {
		t.Errorf("Expected GraphConstructionError, got %T: %v", err, err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	deps := map[string][]string{
		"A": {"B", "C"},
		"B": {"A", "C"},
		"C": {"A"},
	}

	run := func() *Result {
		res, err := NewRunner(snapshot(deps), nil).Run(context.Background(), Options{Workers: 4})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return res
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		// run ids differ; everything else must not
		first.RunID, again.RunID = "", ""
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Errorf("Run %d produced a different result:\n%s\nvs\n%s", i, a, b)
		}
	}
}

func TestRun_ExpiredContextIsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(snapshot(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}), nil)
	res, err := r.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != StatusPartial {
		t.Errorf("Expected PARTIAL after budget expiry, got %s", res.Status)
	}
}

func TestRun_PublishesStatusAndSummary(t *testing.T) {
	pub := pubsub.NewSSEPublisher()
	defer pub.Close()

	sub, err := pub.Subscribe(context.Background(), "run_status")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	resultSub, err := pub.Subscribe(context.Background(), "result")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	r := NewRunner(snapshot(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}), pub)
	if _, err := r.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	statuses := drain(sub)
	if len(statuses) < totalSteps {
		t.Fatalf("Expected at least %d status events, got %d", totalSteps, len(statuses))
	}
	var last pubsub.RunStatus
	if err := json.Unmarshal(statuses[len(statuses)-1].Data, &last); err != nil {
		t.Fatalf("Bad status payload: %v", err)
	}
	if last.State != "complete" || last.Step != totalSteps {
		t.Errorf("Unexpected final status: %+v", last)
	}

	summaries := drain(resultSub)
	if len(summaries) != 1 {
		t.Fatalf("Expected one summary event, got %d", len(summaries))
	}
	var sum pubsub.PlanSummary
	if err := json.Unmarshal(summaries[0].Data, &sum); err != nil {
		t.Fatalf("Bad summary payload: %v", err)
	}
	if sum.SCCs != 1 || sum.Cycles != 1 || sum.Cuts != 1 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
}

func drain(sub pubsub.Subscription) []pubsub.Event {
	var events []pubsub.Event
	for {
		select {
		case ev := <-sub.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}
