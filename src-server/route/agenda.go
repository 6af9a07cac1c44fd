package route

import (
	"casal/src-server/calendar"
	"casal/src-server/deeplink"
	"casal/src-server/gateway"
	"casal/src-server/model"
	"casal/src-server/navstack"
	"casal/src-server/store"
	"casal/src-server/utils"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

func writeGatewayError(w http.ResponseWriter, err error) {
	var validationErr *gateway.ValidationError
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Event not found"))
	case errors.As(err, &validationErr):
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(validationErr.Reason))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Can't reach the event backend"))
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Can't marshal response body"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func actionFromString(s string) (navstack.Action, bool) {
	switch s {
	case "show":
		return navstack.ActionShow, true
	case "edit":
		return navstack.ActionEdit, true
	case "create":
		return navstack.ActionCreate, true
	case "delete":
		return navstack.ActionDelete, true
	default:
		return 0, false
	}
}

func actionString(a navstack.Action) string {
	switch a {
	case navstack.ActionEdit:
		return "edit"
	case navstack.ActionCreate:
		return "create"
	case navstack.ActionDelete:
		return "delete"
	default:
		return "show"
	}
}

func Agenda(muxer *http.ServeMux, as *utils.AppState, st *store.Store, rs *deeplink.Resolver, ns *navstack.Stack) {
	// get one year view; variant picks between every occurrence and
	// one representative per periodic group
	muxer.HandleFunc("GET /agenda/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide a year"))
			return
		}
		variant := gateway.Variant(r.URL.Query().Get("variant"))
		switch variant {
		case gateway.VariantAll, gateway.VariantLatest:
		case "":
			variant = gateway.VariantLatest
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Unknown variant"))
			return
		}

		if err := st.LoadEventsByYear(r.Context(), year, variant); err != nil {
			writeGatewayError(w, err)
			return
		}
		if keyword := r.URL.Query().Get("q"); keyword != "" {
			st.ApplyFilterWord(keyword)
		}
		writeJSON(w, st.Visible())
	})

	// get the combined all+latest bundle for one year
	muxer.HandleFunc("GET /agenda/bundle", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide a year"))
			return
		}

		if err := st.LoadYearBundle(r.Context(), year); err != nil {
			writeGatewayError(w, err)
			return
		}
		rs.NotifyBundleLoaded(year)

		writeJSON(w, struct {
			All     []model.Event `json:"all"`
			Latest  []model.Event `json:"latest"`
			Visible []model.Event `json:"visible"`
		}{
			All:     st.All(),
			Latest:  st.Latest(),
			Visible: st.Visible(),
		})
	})

	// get one event
	muxer.HandleFunc("GET /agenda/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide an event ID"))
			return
		}

		if err := st.LoadEventByID(r.Context(), id); err != nil {
			writeGatewayError(w, err)
			return
		}
		selected := st.Selected()
		if selected == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Event not found"))
			return
		}
		writeJSON(w, selected)
	})

	type SaveEventReqBody struct {
		model.Event
		RRule string `json:"rrule,omitempty"`
	}

	// create an event; an rrule expands into a whole periodic group
	muxer.HandleFunc("POST /agenda/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var reqBody SaveEventReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}

		if reqBody.RRule != "" {
			saved, err := st.CreatePeriodicGroup(r.Context(), reqBody.Event, reqBody.RRule)
			if err != nil {
				writeGatewayError(w, err)
				return
			}
			writeJSON(w, saved)
			return
		}

		saved, err := st.SaveEventSmart(r.Context(), reqBody.Event, false)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, saved)
	})

	// modify an existing event; turning IsPeriodic off collapses the
	// event's periodic group down to this one
	muxer.HandleFunc("PUT /agenda/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide an event ID"))
			return
		}

		var reqBody SaveEventReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		reqBody.Event.ID = id

		saved, err := st.SaveEventSmart(r.Context(), reqBody.Event, true)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, saved)
	})

	// delete an event
	muxer.HandleFunc("DELETE /agenda/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide an event ID"))
			return
		}

		if err := st.DeleteEvent(r.Context(), id); err != nil {
			writeGatewayError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// month grid plus deep-link resolution; an event id parameter or a
	// multiDate parameter steers the displayed month and may open a
	// modal once the matching data has loaded
	muxer.HandleFunc("GET /agenda/calendar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if raw := r.URL.Query().Get("event"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a numeric event ID"))
				return
			}
			if err := rs.ResolveID(r.Context(), id); err != nil {
				writeGatewayError(w, err)
				return
			}
		} else if multiDate := r.URL.Query().Get("multiDate"); multiDate != "" {
			rs.ResolveMultiDate(r.Context(), multiDate)
		} else if raw := r.URL.Query().Get("year"); raw != "" {
			// plain navigation without a deep link
			year, err := strconv.Atoi(raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a numeric year"))
				return
			}
			if err := st.LoadYearBundle(r.Context(), year); err != nil {
				writeGatewayError(w, err)
				return
			}
			rs.NotifyBundleLoaded(year)
		}

		year, month := rs.Target()
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 12 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Month must be between 1 and 12"))
				return
			}
			month = time.Month(parsed)
		}

		cells := calendar.BuildMonthGrid(st.Visible(), year, month)
		open := rs.Consume(cells)
		if open.Kind != deeplink.OpenNone {
			// a deep link starts a fresh modal chain
			ns.Clear()
		}

		writeJSON(w, struct {
			Year  int             `json:"year"`
			Month int             `json:"month"`
			Cells []calendar.Cell `json:"cells"`
			Open  *deeplink.Open  `json:"open,omitempty"`
		}{
			Year:  year,
			Month: int(month),
			Cells: cells,
			Open: func() *deeplink.Open {
				if open.Kind == deeplink.OpenNone {
					return nil
				}
				return &open
			}(),
		})
	})

	// natural-language day search, e.g. when=next friday
	muxer.HandleFunc("GET /agenda/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if keyword := r.URL.Query().Get("q"); keyword != "" {
			st.ApplyFilterWord(keyword)
		}

		whenStr := r.URL.Query().Get("when")
		if whenStr == "" {
			writeJSON(w, st.Visible())
			return
		}

		parsed, err := as.When.Parse(whenStr, time.Now().In(as.Config.GetLocation()))
		if err != nil || parsed == nil {
			slog.Debug("can't parse natural date", "when", whenStr, "error", err)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Can't understand that date"))
			return
		}
		dayKey := parsed.Time.Format(model.DateLayout)

		matched := make([]model.Event, 0)
		for _, ev := range st.Visible() {
			if ev.CoversDay(dayKey) {
				matched = append(matched, ev)
			}
		}
		writeJSON(w, struct {
			Day    string        `json:"day"`
			Events []model.Event `json:"events"`
		}{Day: dayKey, Events: matched})
	})

	type ModalFrameBody struct {
		TargetType string          `json:"targetType"`
		Action     string          `json:"action"`
		Item       json.RawMessage `json:"item,omitempty"`
	}

	// record the modal being navigated away from, so back can restore
	// it exactly as it was
	muxer.HandleFunc("POST /agenda/modal", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var reqBody ModalFrameBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		if reqBody.TargetType == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide a target type"))
			return
		}
		action, ok := actionFromString(reqBody.Action)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Unknown action"))
			return
		}

		ns.Push(navstack.Frame{
			TargetType: reqBody.TargetType,
			Action:     action,
			Item:       reqBody.Item,
		})
		writeJSON(w, struct {
			Depth int `json:"depth"`
		}{Depth: ns.Len()})
	})

	// pop the most recent frame; a null frame means the chain is done
	// and the view is back at the calendar
	muxer.HandleFunc("POST /agenda/modal/back", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		frame, ok := ns.Pop()
		if !ok {
			st.ClearSelected()
			writeJSON(w, struct {
				Frame     *ModalFrameBody `json:"frame"`
				CanGoBack bool            `json:"canGoBack"`
			}{Frame: nil, CanGoBack: false})
			return
		}

		item, _ := frame.Item.(json.RawMessage)
		writeJSON(w, struct {
			Frame     ModalFrameBody `json:"frame"`
			CanGoBack bool           `json:"canGoBack"`
		}{
			Frame: ModalFrameBody{
				TargetType: frame.TargetType,
				Action:     actionString(frame.Action),
				Item:       item,
			},
			CanGoBack: ns.CanGoBack(),
		})
	})

	// explicit close drops the whole chain
	muxer.HandleFunc("DELETE /agenda/modal", func(w http.ResponseWriter, r *http.Request) {
		ns.Clear()
		st.ClearSelected()
		w.WriteHeader(http.StatusOK)
	})
}
