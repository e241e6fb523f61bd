package notify_test

import (
	"testing"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/notify/notifytest"
)

func testItem() model.Item {
	return model.Item{ID: 10, Title: "Umbrella", Status: model.ItemStatusFound, PostedBy: 1}
}

func TestPlan(t *testing.T) {
	msg := &model.Message{ItemID: 10, SenderID: 2, ReceiverID: 1, Body: "mine"}

	tests := []struct {
		name      string
		t         notify.Transition
		wantUsers []int64
		wantType  string
	}{
		{"claim request goes to poster only",
			notify.Transition{Kind: notify.ClaimRequested, Item: testItem(), Message: msg},
			[]int64{1}, notify.EventNewClaimRequest},
		{"claim request without message",
			notify.Transition{Kind: notify.ClaimRequested, Item: testItem()},
			nil, ""},
		{"approval goes to claimant and poster",
			notify.Transition{Kind: notify.ClaimApproved, Item: testItem(), Affected: []int64{3}},
			[]int64{3, 1}, notify.EventClaimStatusUpdated},
		{"denial without claimant goes to poster",
			notify.Transition{Kind: notify.ClaimDenied, Item: testItem()},
			[]int64{1}, notify.EventClaimStatusUpdated},
		{"duplicates collapse",
			notify.Transition{Kind: notify.ClaimDenied, Item: testItem(), Affected: []int64{2, 2, 1}},
			[]int64{2, 1}, notify.EventClaimStatusUpdated},
		{"removal goes to claimants",
			notify.Transition{Kind: notify.ItemRemoved, Item: testItem(), Affected: []int64{2, 3}},
			[]int64{2, 3}, notify.EventItemDeleted},
		{"unknown kind",
			notify.Transition{Kind: "bogus", Item: testItem()},
			nil, ""},
	}

	for _, tt := range tests {
		got := notify.Plan(tt.t)
		if len(got) != len(tt.wantUsers) {
			t.Errorf("%s: expected %d deliveries, got %d", tt.name, len(tt.wantUsers), len(got))
			continue
		}
		for i, d := range got {
			if d.UserID != tt.wantUsers[i] {
				t.Errorf("%s: delivery %d to %d, want %d", tt.name, i, d.UserID, tt.wantUsers[i])
			}
			if d.Event.Type != tt.wantType {
				t.Errorf("%s: event %q, want %q", tt.name, d.Event.Type, tt.wantType)
			}
		}
	}
}

func TestPlanStatusPayload(t *testing.T) {
	got := notify.Plan(notify.Transition{Kind: notify.ClaimApproved, Item: testItem(), Affected: []int64{2}})
	payload, ok := got[0].Event.Data.(notify.ClaimStatusPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", got[0].Event.Data)
	}
	if payload.ItemID != 10 || payload.Status != notify.StatusApproved {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestRouterDeliversToRegisteredUsersOnly(t *testing.T) {
	reg := notify.NewRegistry(testTokens())
	router := notify.NewRouter(reg)

	poster := notifytest.NewRecorder("poster")
	reg.Identify("user:1", poster)

	sent := router.Notify(notify.Transition{Kind: notify.ClaimApproved, Item: testItem(), Affected: []int64{2}})
	if sent != 1 {
		t.Errorf("expected 1 delivery, got %d", sent)
	}
	if n := len(poster.OfType(notify.EventClaimStatusUpdated)); n != 1 {
		t.Errorf("expected poster to get 1 status event, got %d", n)
	}
}

func TestRouterSwallowsSendFailures(t *testing.T) {
	reg := notify.NewRegistry(testTokens())
	router := notify.NewRouter(reg)

	closed := notifytest.NewRecorder("closed")
	reg.Identify("user:1", closed)
	closed.Close()

	if sent := router.Notify(notify.Transition{Kind: notify.ClaimDenied, Item: testItem()}); sent != 0 {
		t.Errorf("expected 0 deliveries, got %d", sent)
	}
}

func TestRouterBroadcast(t *testing.T) {
	reg := notify.NewRegistry(testTokens())
	router := notify.NewRouter(reg)

	anon := notifytest.NewRecorder("anon")
	known := notifytest.NewRecorder("known")
	reg.Attach(anon)
	reg.Identify("user:4", known)

	ev := notify.Event{Type: notify.EventBroadcastItem, Data: testItem()}
	if sent := router.Broadcast(ev); sent != 2 {
		t.Errorf("expected 2 deliveries, got %d", sent)
	}
	if len(anon.Events()) != 1 || len(known.Events()) != 1 {
		t.Error("expected every connection to receive the broadcast")
	}
}
