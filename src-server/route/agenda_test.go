package route_test

import (
	"casal/src-server/deeplink"
	"casal/src-server/gateway"
	"casal/src-server/model"
	"casal/src-server/navstack"
	"casal/src-server/route"
	"casal/src-server/store"
	"casal/src-server/utils"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeGateway struct {
	events map[int64]model.Event
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func newFakeGateway(events ...model.Event) *fakeGateway {
	f := &fakeGateway{events: make(map[int64]model.Event)}
	for _, ev := range events {
		f.events[ev.ID] = ev
	}
	return f
}

func (f *fakeGateway) FetchByYear(ctx context.Context, year int, variant gateway.Variant) ([]model.Event, error) {
	matched := make([]model.Event, 0)
	for _, ev := range f.events {
		if ev.Year() == year {
			matched = append(matched, ev)
		}
	}
	for i := range matched {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].StartDate < matched[i].StartDate ||
				(matched[j].StartDate == matched[i].StartDate && matched[j].ID < matched[i].ID) {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if variant == gateway.VariantLatest {
		return gateway.DedupLatest(matched), nil
	}
	return matched, nil
}

func (f *fakeGateway) FetchByID(ctx context.Context, id int64) (model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return model.Event{}, gateway.ErrNotFound
	}
	return ev, nil
}

func (f *fakeGateway) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	return model.Event{}, fmt.Errorf("not used")
}

func (f *fakeGateway) Update(ctx context.Context, id int64, ev model.Event) (model.Event, error) {
	return model.Event{}, fmt.Errorf("not used")
}

func (f *fakeGateway) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not used")
}

func (f *fakeGateway) DeleteGroupExcept(ctx context.Context, groupID string, keepID int64) error {
	return fmt.Errorf("not used")
}

func singleDay(id int64, title, day string) model.Event {
	return model.Event{ID: id, Title: title, StartDate: day, EndDate: day}
}

func newTestMux(t *testing.T, events ...model.Event) (*http.ServeMux, *navstack.Stack) {
	t.Helper()
	t.Setenv("BACKEND_URL", "http://backend.invalid")

	as := utils.NewAppState()
	f := newFakeGateway(events...)
	st := store.New(f, store.NewLoadingGate(0), nil)
	rs := deeplink.New(f.FetchByID, func(ctx context.Context, year int, onLoaded func()) {
		if err := st.LoadYearBundle(ctx, year); err == nil {
			onLoaded()
		}
	})
	ns := navstack.New()

	muxer := http.NewServeMux()
	route.Agenda(muxer, as, st, rs, ns)
	return muxer, ns
}

func doJSON(t *testing.T, muxer *http.ServeMux, method, path, body string, out any) int {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	muxer.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatal(err, rec.Body.String())
		}
	}
	return rec.Code
}

type modalFrame struct {
	TargetType string          `json:"targetType"`
	Action     string          `json:"action"`
	Item       json.RawMessage `json:"item"`
}

type backResp struct {
	Frame     *modalFrame `json:"frame"`
	CanGoBack bool        `json:"canGoBack"`
}

func TestModalStackFlow(t *testing.T) {
	muxer, _ := newTestMux(t)

	var pushed struct {
		Depth int `json:"depth"`
	}
	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"event","action":"show","item":{"id":1}}`, &pushed); code != http.StatusOK {
		t.Fatal("push failed", code)
	}
	if pushed.Depth != 1 {
		t.Error("unexpected depth", pushed.Depth)
	}
	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"event","action":"edit","item":{"id":2,"draft":"half-typed"}}`, &pushed); code != http.StatusOK {
		t.Fatal("push failed", code)
	}
	if pushed.Depth != 2 {
		t.Error("unexpected depth", pushed.Depth)
	}

	// back restores the newest frame first, view state intact
	var back backResp
	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal/back", "", &back); code != http.StatusOK {
		t.Fatal("back failed", code)
	}
	if back.Frame == nil || back.Frame.Action != "edit" || !back.CanGoBack {
		t.Error("wrong frame restored", back)
	}
	if !strings.Contains(string(back.Frame.Item), "half-typed") {
		t.Error("frame item lost its view state", string(back.Frame.Item))
	}

	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal/back", "", &back); code != http.StatusOK {
		t.Fatal("back failed", code)
	}
	if back.Frame == nil || back.Frame.Action != "show" || back.CanGoBack {
		t.Error("wrong frame restored", back)
	}

	// the drained stack answers with a null frame
	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal/back", "", &back); code != http.StatusOK {
		t.Fatal("back failed", code)
	}
	if back.Frame != nil || back.CanGoBack {
		t.Error("empty stack still returned a frame", back)
	}
}

func TestModalPushRejectsBadInput(t *testing.T) {
	muxer, _ := newTestMux(t)

	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal", `{"action":"show"}`, nil); code != http.StatusBadRequest {
		t.Error("blank target type accepted", code)
	}
	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"event","action":"teleport"}`, nil); code != http.StatusBadRequest {
		t.Error("unknown action accepted", code)
	}
}

func TestCalendarDeepLinkResetsModals(t *testing.T) {
	muxer, ns := newTestMux(t,
		singleDay(1, "Asamblea", "2024-03-10"),
		singleDay(2, "Concierto", "2024-03-10"),
	)

	if code := doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"event","action":"show","item":{"id":9}}`, nil); code != http.StatusOK {
		t.Fatal("push failed", code)
	}

	var calResp struct {
		Open *struct {
			Kind int `json:"Kind"`
		} `json:"open"`
	}
	if code := doJSON(t, muxer, http.MethodGet, "/agenda/calendar?multiDate=2024-03-10", "", &calResp); code != http.StatusOK {
		t.Fatal("calendar failed", code)
	}
	if calResp.Open == nil {
		t.Fatal("deep link did not open a modal")
	}

	// the fresh chain replaced the stale one
	if ns.Len() != 0 {
		t.Error("deep link left old modal frames behind", ns.Len())
	}
}

func TestModalClose(t *testing.T) {
	muxer, ns := newTestMux(t)

	doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"event","action":"show"}`, nil)
	doJSON(t, muxer, http.MethodPost, "/agenda/modal",
		`{"targetType":"place","action":"show"}`, nil)

	if code := doJSON(t, muxer, http.MethodDelete, "/agenda/modal", "", nil); code != http.StatusOK {
		t.Fatal("close failed", code)
	}
	if ns.Len() != 0 || ns.CanGoBack() {
		t.Error("close left frames behind", ns.Len())
	}
}
