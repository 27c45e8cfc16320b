package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/profile"
)

func testProfile(name string) *profile.Configuration {
	return &profile.Configuration{
		Name:       name,
		Credential: "aaa.bbb.ccc",
		Channel:    "123456789012345678",
		Schedule:   profile.Interval{Seconds: 3600},
		Messages:   profile.MessageList{profile.Text{Content: "hello"}},
	}
}

var scheduled = map[string]string{"source": MetadataSource}

func nextDelivery(t *testing.T, b *bus.MessageBus) bus.Delivery {
	t.Helper()
	got := make(chan bus.Delivery, 1)
	b.Subscribe("", func(d bus.Delivery) { got <- d })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.DispatchOutbound(ctx)
	select {
	case d := <-got:
		return d
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for delivery")
	}
	return bus.Delivery{}
}

func TestSpec(t *testing.T) {
	tests := []struct {
		name    string
		sched   profile.Schedule
		want    string
		wantErr bool
	}{
		{"interval", profile.Interval{Seconds: 90}, "@every 90s", false},
		{"interval fallback", profile.Interval{Seconds: 0}, "@every 300s", false},
		{"simple preset", profile.CronSimple{Preset: "0 9 * * *"}, "0 9 * * *", false},
		{"advanced", profile.CronAdvanced{Hour: 9, Minute: 30, Day: "1-5"}, "30 9 * * 1-5", false},
		{"advanced bad day", profile.CronAdvanced{Hour: 9, Minute: 30, Day: "funday"}, "", true},
		{"simple empty", profile.CronSimple{}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Spec(tc.sched)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSchedule) {
					t.Fatalf("expected ErrInvalidSchedule, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Spec = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStartProfileFiresImmediately(t *testing.T) {
	b := bus.NewMessageBus(10)
	svc := NewService(b, "discord")
	svc.Start()
	defer svc.Stop()

	if err := svc.StartProfile(testProfile("news")); err != nil {
		t.Fatalf("StartProfile: %v", err)
	}

	d := nextDelivery(t, b)
	if d.Channel != "discord" || d.Profile != "news" || d.Target != "123456789012345678" || d.Credential != "aaa.bbb.ccc" {
		t.Errorf("unexpected delivery %+v", d)
	}
	if d.Message != (profile.Text{Content: "hello"}) {
		t.Errorf("message = %#v", d.Message)
	}
	if !svc.Running("news") {
		t.Error("expected news to be running")
	}
	if _, ok := svc.NextRun("news"); !ok {
		t.Error("expected a next run time")
	}
}

func TestStartProfileErrors(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), "discord")

	incomplete := testProfile("a")
	incomplete.Credential = ""
	if err := svc.StartProfile(incomplete); !errors.Is(err, ErrIncompleteProfile) {
		t.Errorf("missing token: got %v", err)
	}

	empty := testProfile("b")
	empty.Messages = nil
	if err := svc.StartProfile(empty); !errors.Is(err, ErrIncompleteProfile) {
		t.Errorf("no messages: got %v", err)
	}

	badCron := testProfile("c")
	badCron.Schedule = profile.CronAdvanced{Hour: 1, Minute: 2, Day: "x"}
	if err := svc.StartProfile(badCron); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("bad cron: got %v", err)
	}

	if err := svc.StartProfile(testProfile("d")); err != nil {
		t.Fatalf("StartProfile: %v", err)
	}
	if err := svc.StartProfile(testProfile("d")); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second start: got %v", err)
	}
}

func TestStopProfile(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), "discord")

	if err := svc.StopProfile("ghost"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if err := svc.StartProfile(testProfile("news")); err != nil {
		t.Fatal(err)
	}
	if err := svc.StopProfile("news"); err != nil {
		t.Fatalf("StopProfile: %v", err)
	}

	st, ok := svc.Status()["news"]
	if !ok {
		t.Fatal("expected status to be kept after stop")
	}
	if st.Running || st.NextRun != nil {
		t.Errorf("unexpected status after stop: %+v", st)
	}

	svc.Forget("news")
	if _, ok := svc.Status()["news"]; ok {
		t.Error("expected status to be dropped by Forget")
	}
}

func TestForgetIdleProfile(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), "discord")

	// Never started.
	svc.Forget("ghost")
	if len(svc.Status()) != 0 {
		t.Errorf("Status = %v", svc.Status())
	}

	// Started, stopped, then forgotten: the second stop is not an error.
	if err := svc.StartProfile(testProfile("news")); err != nil {
		t.Fatal(err)
	}
	if err := svc.StopProfile("news"); err != nil {
		t.Fatal(err)
	}
	svc.Forget("news")
	if svc.Running("news") {
		t.Error("expected news to stay stopped")
	}
	if _, ok := svc.Status()["news"]; ok {
		t.Error("expected status to be dropped by Forget")
	}
}

func TestRecordResults(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), "discord")
	if err := svc.StartProfile(testProfile("news")); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2024, 5, 1, 14, 3, 9, 0, time.Local)
	svc.record(bus.Result{Delivery: bus.Delivery{Profile: "news", Metadata: scheduled}, At: at})
	svc.record(bus.Result{Delivery: bus.Delivery{Profile: "news", Metadata: scheduled}, Err: errors.New("forbidden"), At: at})

	st := svc.Status()["news"]
	if st.SentCount != 1 || st.FailedCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", st.SentCount, st.FailedCount)
	}
	if st.LastRun != "14:03:09" {
		t.Errorf("LastRun = %q", st.LastRun)
	}
	if st.LastError != "forbidden" {
		t.Errorf("LastError = %q", st.LastError)
	}
	if !st.Running {
		t.Error("expected running")
	}
}

func TestTrackResults(t *testing.T) {
	b := bus.NewMessageBus(10)
	svc := NewService(b, "discord")
	observed := make(chan string, 4)
	svc.OnResult(func(res bus.Result) { observed <- res.Delivery.Profile })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.TrackResults(ctx)
		close(done)
	}()

	b.PublishResult(bus.Result{Delivery: bus.Delivery{Profile: "late", Metadata: scheduled}, At: time.Now()})

	deadline := time.After(time.Second)
	for svc.Status()["late"].SentCount != 1 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for result to be recorded")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	if svc.Status()["late"].LastRun == "-" {
		t.Error("expected LastRun to be set")
	}

	b.PublishResult(bus.Result{Delivery: bus.Delivery{Profile: "oneoff"}, At: time.Now()})
	b.PublishResult(bus.Result{Delivery: bus.Delivery{Profile: "late", Metadata: scheduled}, At: time.Now()})
	deadline = time.After(time.Second)
	for svc.Status()["late"].SentCount != 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for second result")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	if _, ok := svc.Status()["oneoff"]; ok {
		t.Error("results without the scheduler tag must not create status")
	}
	for _, want := range []string{"late", "oneoff", "late"} {
		select {
		case got := <-observed:
			if got != want {
				t.Errorf("observed %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for observer to see %q", want)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TrackResults did not return after cancel")
	}
}

func TestPickRandomMessage(t *testing.T) {
	b := bus.NewMessageBus(10)
	svc := NewService(b, "discord")
	svc.pick = func(msgs profile.MessageList) profile.Message { return msgs[len(msgs)-1] }

	cfg := testProfile("multi")
	cfg.Messages = profile.MessageList{profile.Text{Content: "one"}, profile.Text{Content: "two"}}
	if err := svc.StartProfile(cfg); err != nil {
		t.Fatal(err)
	}
	if d := nextDelivery(t, b); d.Message != (profile.Text{Content: "two"}) {
		t.Errorf("message = %#v", d.Message)
	}
}
