// README: Coordinator tests (isolation, skipping, panic capture, enrichment).
package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

type fakeChannel struct {
	name       string
	configured bool
	err        error
	panics     bool
	delay      time.Duration
	calls      atomic.Int32
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(ctx context.Context, d draft.Draft, history []types.Turn) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return "", f.err
	}
	return "sent", nil
}

func validDraft() draft.Draft {
	d := draft.New()
	d.MergeExtracted(draft.Fields{Name: "Иван", Phone: "+7 912 345-67-89"})
	return d
}

func resultFor(t *testing.T, sub Submission, channel string) Result {
	t.Helper()
	for _, r := range sub.Results {
		if r.Channel == channel {
			return r
		}
	}
	t.Fatalf("no result for channel %s in %+v", channel, sub.Results)
	return Result{}
}

func TestDispatchFailingChannelDoesNotMaskOthers(t *testing.T) {
	good := &fakeChannel{name: "telegram", configured: true}
	bad := &fakeChannel{name: "bitrix", configured: true, err: errors.New("network down")}

	sub := NewCoordinator(nil, nil, good, bad).Dispatch(context.Background(), validDraft(), nil)

	if r := resultFor(t, sub, "telegram"); r.Status != StatusOK {
		t.Errorf("telegram status = %s, want ok", r.Status)
	}
	r := resultFor(t, sub, "bitrix")
	if r.Status != StatusError {
		t.Errorf("bitrix status = %s, want error", r.Status)
	}
	if !strings.Contains(r.Detail, "network down") {
		t.Errorf("bitrix detail = %q, want the error description", r.Detail)
	}
}

func TestDispatchUnconfiguredChannelIsSkippedNotCalled(t *testing.T) {
	off := &fakeChannel{name: "bitrix", configured: false}
	on := &fakeChannel{name: "telegram", configured: true}

	sub := NewCoordinator(nil, nil, off, on).Dispatch(context.Background(), validDraft(), nil)

	if r := resultFor(t, sub, "bitrix"); r.Status != StatusSkipped {
		t.Errorf("bitrix status = %s, want skipped", r.Status)
	}
	if off.calls.Load() != 0 {
		t.Errorf("unconfigured channel was invoked %d times", off.calls.Load())
	}
	if on.calls.Load() != 1 {
		t.Errorf("configured channel invoked %d times, want exactly one attempt", on.calls.Load())
	}
}

func TestDispatchPanicIsIsolated(t *testing.T) {
	panicky := &fakeChannel{name: "bitrix", configured: true, panics: true}
	good := &fakeChannel{name: "telegram", configured: true}

	sub := NewCoordinator(nil, nil, panicky, good).Dispatch(context.Background(), validDraft(), nil)

	r := resultFor(t, sub, "bitrix")
	if r.Status != StatusError || !strings.Contains(r.Detail, "panic") {
		t.Errorf("panicking channel result = %+v, want captured panic", r)
	}
	if resultFor(t, sub, "telegram").Status != StatusOK {
		t.Error("healthy channel affected by the panicking one")
	}
}

func TestDispatchWaitsForSlowChannel(t *testing.T) {
	slow := &fakeChannel{name: "bitrix", configured: true, delay: 50 * time.Millisecond}
	fast := &fakeChannel{name: "telegram", configured: true}

	sub := NewCoordinator(nil, nil, slow, fast).Dispatch(context.Background(), validDraft(), nil)

	if len(sub.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(sub.Results))
	}
	if resultFor(t, sub, "bitrix").Status != StatusOK {
		t.Error("slow channel result was not awaited")
	}
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, span string) (string, bool) {
	if span == "аэропорт" {
		return "Шереметьево, Химки, Московская обл.", true
	}
	return "", false
}

func TestDispatchAddressEnrichmentDoesNotMutateCallerDraft(t *testing.T) {
	d := validDraft()
	_ = d.ApplyEdit(draft.FieldPickup, "аэропорт")

	ch := &fakeChannel{name: "telegram", configured: true}
	sub := NewCoordinator(nil, fakeResolver{}, ch).Dispatch(context.Background(), d, nil)

	if sub.Order.Pickup != "Шереметьево, Химки, Московская обл." {
		t.Errorf("snapshot pickup = %q, want resolved address", sub.Order.Pickup)
	}
	if d.Pickup != "аэропорт" {
		t.Errorf("caller draft mutated: pickup = %q", d.Pickup)
	}
}

func TestTelegramSendAgainstFakeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat")
	tg.baseURL = srv.URL

	detail, err := tg.Send(context.Background(), validDraft(), []types.Turn{
		{Role: types.RoleUser, Content: "хочу трансфер", Seq: 0},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if detail != "message_id=42" {
		t.Errorf("detail = %q, want message_id=42", detail)
	}
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	tg := NewTelegram("bad", "chat")
	tg.baseURL = srv.URL

	if _, err := tg.Send(context.Background(), validDraft(), nil); err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("err = %v, want API error with description", err)
	}
}

func TestBitrixSendBuildsLeadPayload(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/crm.lead.add.json") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		_, _ = w.Write([]byte(`{"result":7}`))
	}))
	defer srv.Close()

	bx := NewBitrix(srv.URL)
	detail, err := bx.Send(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if detail != "lead_id=7" {
		t.Errorf("detail = %q, want lead_id=7", detail)
	}
	for _, want := range []string{"Заказ от Иван", "WORK", "TITLE", "COMMENTS"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("lead payload missing %q: %s", want, gotBody)
		}
	}
}

func TestBitrixSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"INVALID_CREDENTIALS","error_description":"token expired"}`))
	}))
	defer srv.Close()

	bx := NewBitrix(srv.URL)
	if _, err := bx.Send(context.Background(), validDraft(), nil); err == nil || !strings.Contains(err.Error(), "INVALID_CREDENTIALS") {
		t.Errorf("err = %v, want API error", err)
	}
}
