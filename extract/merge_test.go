package extract

import (
	"reflect"
	"testing"

	"github.com/usherhq/usher/models"
)

func TestMerge_HeuristicWinsExactFields(t *testing.T) {
	heur := &models.WeddingData{
		Partner1Name: "Emma",
		Partner2Name: "Liam",
		WeddingDate:  "2026-06-14",
		RSVPURL:      "https://www.emmaandliam.com/rsvp",
	}
	model := &models.WeddingData{
		Partner1Name: "Emma Rose",
		Partner2Name: "William",
		WeddingDate:  "2026-06-15",
		RSVPURL:      "https://example.com/hallucinated",
	}

	out, prov := Merge(heur, model)

	if out.Partner1Name != "Emma" || out.Partner2Name != "Liam" {
		t.Errorf("names = %q, %q; heuristic values should win", out.Partner1Name, out.Partner2Name)
	}
	if out.WeddingDate != "2026-06-14" {
		t.Errorf("WeddingDate = %q, want heuristic value", out.WeddingDate)
	}
	if out.RSVPURL != "https://www.emmaandliam.com/rsvp" {
		t.Errorf("RSVPURL = %q, want heuristic value", out.RSVPURL)
	}
	for _, tag := range []string{"partner1_name", "partner2_name", "wedding_date", "rsvp_url"} {
		if prov[tag] != models.ProvenanceHeuristic {
			t.Errorf("prov[%s] = %q, want heuristic", tag, prov[tag])
		}
	}
}

func TestMerge_ModelWinsFreeTextFields(t *testing.T) {
	heur := &models.WeddingData{
		DressCode:       "formal",
		AdditionalNotes: "see site",
	}
	model := &models.WeddingData{
		DressCode:       "Black tie optional; the ceremony lawn is grass",
		AdditionalNotes: "Shuttle departs the hotel lobby at 3:30 PM.",
	}

	out, prov := Merge(heur, model)

	if out.DressCode != model.DressCode {
		t.Errorf("DressCode = %q, want model value", out.DressCode)
	}
	if out.AdditionalNotes != model.AdditionalNotes {
		t.Errorf("AdditionalNotes = %q, want model value", out.AdditionalNotes)
	}
	if prov["dress_code"] != models.ProvenanceModel {
		t.Errorf("prov[dress_code] = %q, want model", prov["dress_code"])
	}
}

func TestMerge_NeverDropsASoleSource(t *testing.T) {
	// Each side holds fields the other lacks; the merge must keep all.
	heur := &models.WeddingData{
		Partner1Name: "Emma",
		RSVPURL:      "https://www.emmaandliam.com/rsvp",
	}
	model := &models.WeddingData{
		WeddingTime:       "4:30 PM",
		CeremonyVenueName: "The Old Mill",
		DressCode:         "Cocktail attire",
	}

	out, prov := Merge(heur, model)

	if out.Partner1Name != "Emma" {
		t.Error("heuristic-only field dropped")
	}
	if out.WeddingTime != "4:30 PM" || out.CeremonyVenueName != "The Old Mill" || out.DressCode != "Cocktail attire" {
		t.Errorf("model-only fields dropped: %+v", out)
	}
	if prov["wedding_time"] != models.ProvenanceModel {
		t.Errorf("prov[wedding_time] = %q, want model", prov["wedding_time"])
	}
	if prov["rsvp_url"] != models.ProvenanceHeuristic {
		t.Errorf("prov[rsvp_url] = %q, want heuristic", prov["rsvp_url"])
	}
}

func TestMerge_ModelDateNormalized(t *testing.T) {
	model := &models.WeddingData{WeddingDate: "June 14, 2026"}

	out, _ := Merge(nil, model)
	if out.WeddingDate != "2026-06-14" {
		t.Errorf("WeddingDate = %q, want 2026-06-14", out.WeddingDate)
	}
}

func TestMerge_ListsComeWholesaleFromModel(t *testing.T) {
	heur := &models.WeddingData{
		FAQs: []models.FAQ{{Question: "Parking?", Answer: "Yes"}},
	}
	model := &models.WeddingData{
		FAQs: []models.FAQ{
			{Question: "What should I wear?", Answer: "Cocktail attire."},
			{Question: "Can I bring a plus one?", Answer: "Check your invitation."},
		},
		Accommodations: []models.Accommodation{
			{HotelName: "Grand Bohemian", RoomBlockCode: "EMLIAM"},
		},
	}

	out, prov := Merge(heur, model)

	if len(out.FAQs) != 2 || out.FAQs[0].Question != "What should I wear?" {
		t.Errorf("FAQs = %+v, want model list wholesale", out.FAQs)
	}
	if prov["faqs"] != models.ProvenanceModel {
		t.Errorf("prov[faqs] = %q, want model", prov["faqs"])
	}
	if len(out.Accommodations) != 1 || prov["accommodations"] != models.ProvenanceModel {
		t.Errorf("model-only list lost: %+v", out.Accommodations)
	}
}

func TestMerge_HeuristicListsKeptWhenModelEmpty(t *testing.T) {
	heur := &models.WeddingData{
		Events: []models.Event{{Name: "Welcome Drinks", StartTime: "7 PM"}},
	}

	out, prov := Merge(heur, &models.WeddingData{})
	if len(out.Events) != 1 || out.Events[0].Name != "Welcome Drinks" {
		t.Errorf("Events = %+v, want heuristic list", out.Events)
	}
	if prov["events"] != models.ProvenanceHeuristic {
		t.Errorf("prov[events] = %q, want heuristic", prov["events"])
	}
}

func TestMerge_RegistryUnionDeduped(t *testing.T) {
	heur := &models.WeddingData{RegistryURLs: []string{
		"https://www.zola.com/registry/emmaandliam",
		"https://www.crateandbarrel.com/gift-registry/emma",
	}}
	model := &models.WeddingData{RegistryURLs: []string{
		"https://www.zola.com/registry/emmaandliam",
		"https://www.amazon.com/wedding/emma-liam",
	}}

	out, _ := Merge(heur, model)
	want := []string{
		"https://www.zola.com/registry/emmaandliam",
		"https://www.crateandbarrel.com/gift-registry/emma",
		"https://www.amazon.com/wedding/emma-liam",
	}
	if !reflect.DeepEqual(out.RegistryURLs, want) {
		t.Errorf("RegistryURLs = %v, want %v", out.RegistryURLs, want)
	}
}

func TestMerge_NilSources(t *testing.T) {
	out, prov := Merge(nil, nil)
	if !out.IsZero() {
		t.Errorf("Merge(nil, nil) = %+v, want zero record", out)
	}
	if len(prov) != 0 {
		t.Errorf("provenance for empty merge: %v", prov)
	}
}

func TestMerge_Deterministic(t *testing.T) {
	heur := &models.WeddingData{
		Partner1Name: "Emma",
		WeddingDate:  "2026-06-14",
		RegistryURLs: []string{"https://a.example", "https://b.example"},
		Events:       []models.Event{{Name: "Ceremony"}},
	}
	model := &models.WeddingData{
		Partner2Name: "Liam",
		DressCode:    "Cocktail attire",
		RegistryURLs: []string{"https://b.example", "https://c.example"},
		FAQs:         []models.FAQ{{Question: "Kids?", Answer: "Adults only."}},
	}

	firstOut, firstProv := Merge(heur, model)
	for i := 0; i < 100; i++ {
		out, prov := Merge(heur, model)
		if !reflect.DeepEqual(out, firstOut) {
			t.Fatalf("run %d: result differs:\n%+v\nvs\n%+v", i, out, firstOut)
		}
		if !reflect.DeepEqual(prov, firstProv) {
			t.Fatalf("run %d: provenance differs: %v vs %v", i, prov, firstProv)
		}
	}
}
