package aggregator

import (
	"fmt"
	"time"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

// State is a step of a run.
type State string

// Run states. A run moves forward only; no state is entered twice.
const (
	StateInit             State = "INIT"
	StateFetchingBase     State = "FETCHING_BASE"
	StateExtracting       State = "EXTRACTING"
	StateSweepingSubPages State = "SWEEPING_SUBPAGES"
	StateFallback         State = "FALLBACK"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

var allowed = map[State][]State{
	StateInit:             {StateFetchingBase},
	StateFetchingBase:     {StateExtracting, StateFallback, StateFailed},
	StateExtracting:       {StateSweepingSubPages, StateFallback, StateDone},
	StateSweepingSubPages: {StateFallback, StateDone},
	StateFallback:         {StateDone},
}

// Transition records a state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// run is the state owned by a single RunURL call.
type run struct {
	baseURL        string
	clock          catalog.Clock
	state          State
	set            *catalog.Set
	products       []catalog.Product
	pages          int
	usedFallback   bool
	fallbackReason string
	startedAt      time.Time
	transitions    []Transition
}

func newRun(baseURL string, clock catalog.Clock) *run {
	return &run{
		baseURL:   baseURL,
		clock:     clock,
		state:     StateInit,
		set:       catalog.NewSet(),
		products:  []catalog.Product{},
		startedAt: clock.Now(),
	}
}

// to advances the run. An illegal transition is a programming error.
func (r *run) to(next State) {
	if !canTransition(r.state, next) {
		panic(fmt.Sprintf("aggregator: illegal transition %s -> %s", r.state, next))
	}
	r.transitions = append(r.transitions, Transition{From: r.state, To: next, At: r.clock.Now()})
	r.state = next
}

func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
