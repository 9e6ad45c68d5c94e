package entity

// Status constants for ExpenseReport
const (
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

// Category constants for ExpenseItem. The set is a business concern and the
// core treats categories as opaque strings, with one exception: CategoryOther
// is the sentinel that activates the free-text description field.
const (
	CategoryTravel         = "TRAVEL"
	CategoryMeal           = "MEAL"
	CategoryAccommodation  = "ACCOMMODATION"
	CategoryEquipment      = "EQUIPMENT"
	CategoryTransportation = "TRANSPORTATION"
	CategoryCommunication  = "COMMUNICATION"
	CategoryOther          = "OTHER"
)
