package dashboard

import (
	"github.com/bobby-s-dev/fireguard/internal/models"
)

type Section string

const (
	SectionHome          Section = "home"
	SectionForecast      Section = "forecast"
	SectionResults       Section = "results"
	SectionDocumentation Section = "documentation"
)

const (
	SuccessToast     = "Forecast generated successfully!"
	ReportSavedToast = "Report saved successfully!"
	GenericFailure   = "Failed to generate forecast. Please try again or check backend connection."
)

// ViewState is everything the dashboard shows. Values are never mutated;
// Reduce returns a new state for each event.
type ViewState struct {
	Section        Section                `json:"section"`
	Input          *models.ForecastInput  `json:"input,omitempty"`
	Result         *models.ForecastResult `json:"result,omitempty"`
	Source         models.ResultSource    `json:"source,omitempty"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	Loading        bool                   `json:"loading"`
	Error          string                 `json:"error,omitempty"`
	Toast          string                 `json:"toast,omitempty"`

	toastSeq int
}

func InitialState() ViewState {
	return ViewState{Section: SectionHome}
}

// ToastSeq identifies the current toast so a stale expiry can be ignored.
func (s ViewState) ToastSeq() int {
	return s.toastSeq
}

type Event interface {
	isEvent()
}

type Navigate struct{ Section Section }

type SubmitStarted struct{ Input *models.ForecastInput }

type SubmitResolved struct {
	Input      models.ForecastInput
	Resolution models.Resolution
}

type SubmitFailed struct{ Message string }

type RestoreLoaded struct {
	Input      models.ForecastInput
	Resolution models.Resolution
}

// ReportSaved follows a successful re-save of the current input.
type ReportSaved struct{}

type ToastExpired struct{ Seq int }

func (Navigate) isEvent()       {}
func (SubmitStarted) isEvent()  {}
func (SubmitResolved) isEvent() {}
func (SubmitFailed) isEvent()   {}
func (RestoreLoaded) isEvent()  {}
func (ReportSaved) isEvent()    {}
func (ToastExpired) isEvent()   {}

func ValidSection(s Section) bool {
	switch s {
	case SectionHome, SectionForecast, SectionResults, SectionDocumentation:
		return true
	}
	return false
}

// Reduce applies one event to the state.
func Reduce(state ViewState, event Event) ViewState {
	next := state

	switch ev := event.(type) {
	case Navigate:
		if ValidSection(ev.Section) {
			next.Section = ev.Section
		}
	case SubmitStarted:
		next.Loading = true
		next.Error = ""
		if ev.Input != nil {
			input := *ev.Input
			next.Input = &input
		}
	case SubmitResolved:
		next = withResolution(next, ev.Input, ev.Resolution)
		next.Loading = false
		next.Error = ""
		next.Toast = SuccessToast
		next.toastSeq++
		next.Section = SectionResults
	case SubmitFailed:
		next.Loading = false
		next.Error = ev.Message
	case RestoreLoaded:
		next = withResolution(next, ev.Input, ev.Resolution)
	case ReportSaved:
		next.Toast = ReportSavedToast
		next.toastSeq++
	case ToastExpired:
		if ev.Seq == state.toastSeq {
			next.Toast = ""
		}
	}

	return next
}

func withResolution(state ViewState, input models.ForecastInput, res models.Resolution) ViewState {
	result := res.Result
	state.Input = &input
	state.Result = &result
	state.Source = res.Source
	state.FallbackReason = ""
	if res.Reason != nil {
		state.FallbackReason = res.Reason.Error()
	}
	return state
}
