package workflow

// State is the single live position of a run in its fixed forward
// sequence. Only the Driver mutates it, through transition.
type State string

const (
	StateInitialising    State = "initialising"
	StateDefiningOrder   State = "defining_order"
	StatePagingToFronts  State = "paging_to_fronts"
	StateInsertingFronts State = "inserting_fronts"
	StatePagingToBacks   State = "paging_to_backs"
	StateInsertingBacks  State = "inserting_backs"
	StatePagingToReview  State = "paging_to_review"
)

func (s State) String() string { return string(s) }
