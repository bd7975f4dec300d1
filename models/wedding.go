package models

// Provenance records which extraction source produced a field value.
type Provenance string

const (
	// ProvenanceHeuristic marks values derived from page metadata, URL
	// patterns, JSON-LD, or discovered links.
	ProvenanceHeuristic Provenance = "heuristic"

	// ProvenanceModel marks values returned by the LLM extraction pass.
	ProvenanceModel Provenance = "model"
)

// WeddingData is the structured record extracted from a wedding website.
// Empty strings and empty slices mean "not found"; the merge step guarantees
// a field is populated whenever either extraction source had a value.
type WeddingData struct {
	Partner1Name string `json:"partner1_name,omitempty"`
	Partner2Name string `json:"partner2_name,omitempty"`

	// WeddingDate is normalized to YYYY-MM-DD.
	WeddingDate string `json:"wedding_date,omitempty"`
	WeddingTime string `json:"wedding_time,omitempty"`
	DressCode   string `json:"dress_code,omitempty"`

	CeremonyVenueName     string `json:"ceremony_venue_name,omitempty"`
	CeremonyVenueAddress  string `json:"ceremony_venue_address,omitempty"`
	ReceptionVenueName    string `json:"reception_venue_name,omitempty"`
	ReceptionVenueAddress string `json:"reception_venue_address,omitempty"`
	ReceptionTime         string `json:"reception_time,omitempty"`

	Events         []Event         `json:"events,omitempty"`
	Accommodations []Accommodation `json:"accommodations,omitempty"`
	FAQs           []FAQ           `json:"faqs,omitempty"`

	RegistryURLs []string `json:"registry_urls,omitempty"`
	RSVPURL      string   `json:"rsvp_url,omitempty"`

	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// Event is a single entry on the wedding schedule (welcome drinks,
// ceremony, reception, farewell brunch, ...).
type Event struct {
	Name      string `json:"name"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Address   string `json:"address,omitempty"`
	Attire    string `json:"attire,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Accommodation is a hotel or lodging option offered to guests, including
// room-block details when the couple reserved one.
type Accommodation struct {
	HotelName         string `json:"hotel_name"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	BookingURL        string `json:"booking_url,omitempty"`
	HasRoomBlock      bool   `json:"has_room_block,omitempty"`
	RoomBlockName     string `json:"room_block_name,omitempty"`
	RoomBlockCode     string `json:"room_block_code,omitempty"`
	RoomBlockRate     string `json:"room_block_rate,omitempty"`
	RoomBlockDeadline string `json:"room_block_deadline,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// FAQ is one question/answer pair from the couple's Q&A page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// IsZero reports whether no field of the record holds a value.
func (w *WeddingData) IsZero() bool {
	return w.Partner1Name == "" && w.Partner2Name == "" &&
		w.WeddingDate == "" && w.WeddingTime == "" && w.DressCode == "" &&
		w.CeremonyVenueName == "" && w.CeremonyVenueAddress == "" &&
		w.ReceptionVenueName == "" && w.ReceptionVenueAddress == "" &&
		w.ReceptionTime == "" &&
		len(w.Events) == 0 && len(w.Accommodations) == 0 && len(w.FAQs) == 0 &&
		len(w.RegistryURLs) == 0 && w.RSVPURL == "" && w.AdditionalNotes == ""
}
