package web

import (
	"time"

	"bellboard/internal/format"
	"bellboard/internal/model"
	"bellboard/internal/schedule"
	"bellboard/internal/timetable"
)

// stateResponse is the JSON shape for /api/state and /api/stream, and the
// data the HTML board is rendered from. Durations are exported in
// milliseconds alongside preformatted strings.
type stateResponse struct {
	Now    time.Time `json:"now"`
	Clock  string    `json:"clock"`
	Date   string    `json:"date"`
	Minute float64   `json:"minute"`

	Phase string   `json:"phase"`
	Item  *itemDTO `json:"item,omitempty"`

	ProgressRatio float64 `json:"progress_ratio"`
	ProgressLabel string  `json:"progress_label"`
	RemainingMs   int64   `json:"remaining_ms"`
	Remaining     string  `json:"remaining"`
	UntilStartMs  int64   `json:"until_start_ms"`
	UntilStart    string  `json:"until_start"`

	DayProgress      float64 `json:"day_progress"`
	DayProgressLabel string  `json:"day_progress_label"`
	DayStart         string  `json:"day_start"`
	DayEnd           string  `json:"day_end"`

	NextIndex int            `json:"next_index"`
	Items     []itemStateDTO `json:"items"`
}

// itemDTO is a JSON-friendly view of an agenda item.
type itemDTO struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
	Range string `json:"range"`
}

// itemStateDTO is a JSON-friendly view of schedule.ItemState.
type itemStateDTO struct {
	itemDTO

	IsDone        bool    `json:"is_done"`
	IsActive      bool    `json:"is_active"`
	IsNext        bool    `json:"is_next"`
	ProgressRatio float64 `json:"progress_ratio"`
	UntilStartMs  int64   `json:"until_start_ms"`
	UntilEndMs    int64   `json:"until_end_ms"`
	// Countdown is the text the board shows: time left when active, time
	// until start when pending, empty when done.
	Countdown string `json:"countdown"`
}

// timetableResponse is the JSON shape for /api/timetable.
type timetableResponse struct {
	DayStart string    `json:"day_start"`
	DayEnd   string    `json:"day_end"`
	Items    []itemDTO `json:"items"`
}

func newItemDTO(idx int, it model.AgendaItem) itemDTO {
	return itemDTO{
		Index: idx,
		Label: it.Label,
		Kind:  string(it.Kind),
		Start: it.Start.String(),
		End:   it.End.String(),
		Range: format.Range(it),
	}
}

func buildState(tt *timetable.Timetable, snap schedule.Snapshot) stateResponse {
	st := snap.State
	resp := stateResponse{
		Now:              snap.Instant,
		Clock:            format.Clock(snap.Instant),
		Date:             format.Date(snap.Instant),
		Minute:           snap.Minute,
		Phase:            st.Phase.String(),
		ProgressRatio:    st.Progress,
		ProgressLabel:    format.Percent(st.Progress),
		RemainingMs:      st.Remaining.Milliseconds(),
		UntilStartMs:     st.UntilStart.Milliseconds(),
		DayProgress:      snap.DayProgress,
		DayProgressLabel: format.Percent(snap.DayProgress),
		DayStart:         format.TimeOfDay(tt.First().Start.Hour, tt.First().Start.Minute),
		DayEnd:           format.TimeOfDay(tt.Last().End.Hour, tt.Last().End.Minute),
		NextIndex:        snap.NextIndex,
		Items:            make([]itemStateDTO, 0, len(snap.Items)),
	}

	// Countdown text is only set for the phase that shows it.
	switch st.Phase {
	case schedule.PhaseInProgress:
		resp.Remaining = format.Countdown(st.Remaining)
	case schedule.PhasePreSchool, schedule.PhaseTransition:
		resp.UntilStart = format.Countdown(st.UntilStart)
	}

	if st.HasItem() {
		dto := newItemDTO(st.ItemIndex, st.Item)
		resp.Item = &dto
	}

	for _, is := range snap.Items {
		dto := itemStateDTO{
			itemDTO:       newItemDTO(is.Index, is.Item),
			IsDone:        is.IsDone,
			IsActive:      is.IsActive,
			IsNext:        is.Index == snap.NextIndex,
			ProgressRatio: is.ProgressRatio,
			UntilStartMs:  is.UntilStart.Milliseconds(),
			UntilEndMs:    is.UntilEnd.Milliseconds(),
		}
		if !is.IsDone {
			dto.Countdown = format.Countdown(is.Countdown())
		}
		resp.Items = append(resp.Items, dto)
	}
	return resp
}

func buildTimetable(tt *timetable.Timetable) timetableResponse {
	resp := timetableResponse{
		DayStart: tt.First().Start.String(),
		DayEnd:   tt.Last().End.String(),
		Items:    make([]itemDTO, 0, tt.Len()),
	}
	for i, it := range tt.Items() {
		resp.Items = append(resp.Items, newItemDTO(i, it))
	}
	return resp
}
