package domain

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one turn of a conversation. History is append-only within a
// session; the core passes it to the workflow service as context and never
// mutates it.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResourceType tags a location record as a shelter or food bank.
type ResourceType string

const (
	ResourceShelter  ResourceType = "shelter"
	ResourceFoodBank ResourceType = "food_bank"
)

// LocationRecord is a single shelter or food-bank entry shown on the map.
// Field names follow the upstream workflow's JSON contract.
type LocationRecord struct {
	Name       string       `json:"location_name"`
	Address    string       `json:"location_address"`
	PostalCode string       `json:"location_postal_code"`
	Longitude  float64      `json:"longitude"`
	Latitude   float64      `json:"latitude"`
	Reasoning  string       `json:"reasoning,omitempty"`
	Type       ResourceType `json:"resource_type"`
	Hours      string       `json:"hours,omitempty"`
	DistanceKm *float64     `json:"distance_km,omitempty"` // computed field
}

// ResultKind discriminates the two shapes a workflow response can normalize to.
type ResultKind string

const (
	KindMessage   ResultKind = "message"
	KindLocations ResultKind = "locations"
)

// NormalizedResult is the tagged union produced by the normalizer: exactly one
// of Text (KindMessage) or Locations (KindLocations) is populated.
type NormalizedResult struct {
	Kind      ResultKind       `json:"kind"`
	Text      string           `json:"text,omitempty"`
	Locations []LocationRecord `json:"locations,omitempty"`
}

// MessageResult builds a message-kind result.
func MessageResult(text string) NormalizedResult {
	return NormalizedResult{Kind: KindMessage, Text: text}
}

// LocationsResult builds a locations-kind result.
func LocationsResult(locations []LocationRecord) NormalizedResult {
	return NormalizedResult{Kind: KindLocations, Locations: locations}
}
