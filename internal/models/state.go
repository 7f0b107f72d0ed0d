package models

type Status int

const (
	StatusIdle Status = iota
	StatusSearching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSearching:
		return "searching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SortMode string

const (
	SortDefault   SortMode = "default"
	SortPriceAsc  SortMode = "low"
	SortPriceDesc SortMode = "high"
)

// ParseSortMode maps the form values used by the UI. Unknown values fall
// back to SortDefault.
func ParseSortMode(v string) (SortMode, bool) {
	switch SortMode(v) {
	case SortDefault, SortPriceAsc, SortPriceDesc:
		return SortMode(v), true
	}
	return SortDefault, false
}

type ActiveView string

const (
	ViewProducts ActiveView = "products"
	ViewRawData  ActiveView = "json"
)

func ParseActiveView(v string) (ActiveView, bool) {
	switch ActiveView(v) {
	case ViewProducts, ViewRawData:
		return ActiveView(v), true
	}
	return ViewProducts, false
}

// SearchViewState is everything needed to render one session's screen.
// It is owned by a single controller goroutine and never shared.
type SearchViewState struct {
	Query               string
	SelectedCountryCode string
	Status              Status
	Results             []ProductResult
	SortMode            SortMode
	ActiveView          ActiveView
	ErrorMessage        string

	// generation identifies the most recent submit; responses tagged with
	// an older generation are stale.
	generation uint64
}

func NewSearchViewState(defaultCountry string) *SearchViewState {
	return &SearchViewState{
		SelectedCountryCode: defaultCountry,
		Status:              StatusIdle,
		Results:             []ProductResult{},
		SortMode:            SortDefault,
		ActiveView:          ViewProducts,
	}
}

// BeginSearch moves to Searching from any state and clears the previous
// outcome. The returned generation must accompany the response.
func (s *SearchViewState) BeginSearch(query, countryCode string) uint64 {
	s.generation++
	s.Query = query
	s.SelectedCountryCode = countryCode
	s.Status = StatusSearching
	s.Results = []ProductResult{}
	s.ErrorMessage = ""
	return s.generation
}

func (s *SearchViewState) Generation() uint64 {
	return s.generation
}

func (s *SearchViewState) ApplySuccess(generation uint64, results []ProductResult) bool {
	if !s.accepts(generation) {
		return false
	}
	if results == nil {
		results = []ProductResult{}
	}
	s.Status = StatusSuccess
	s.Results = results
	s.ErrorMessage = ""
	return true
}

func (s *SearchViewState) ApplyFailure(generation uint64, message string) bool {
	if !s.accepts(generation) {
		return false
	}
	if message == "" {
		message = "Unknown error"
	}
	s.Status = StatusError
	s.Results = []ProductResult{}
	s.ErrorMessage = message
	return true
}

func (s *SearchViewState) SetSortMode(mode SortMode) {
	s.SortMode = mode
}

func (s *SearchViewState) SetActiveView(view ActiveView) {
	s.ActiveView = view
}

func (s *SearchViewState) accepts(generation uint64) bool {
	return s.Status == StatusSearching && generation == s.generation
}
