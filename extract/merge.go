package extract

import "github.com/usherhq/usher/models"

// Merge combines the heuristic and model extractions into one record and
// reports where each populated field came from, keyed by JSON field name.
//
// Precedence is per field. The heuristic pass wins the fields it can read
// exactly (couple names, a plausibility-checked date, the discovered RSVP
// link); the model wins free text it summarizes from the full payload.
// List fields come wholesale from the model when it produced them, and
// registry links are the union of both sources. A field is never empty when
// either source had a value for it.
func Merge(heur, model *models.WeddingData) (models.WeddingData, map[string]models.Provenance) {
	if heur == nil {
		heur = &models.WeddingData{}
	}
	if model == nil {
		model = &models.WeddingData{}
	}

	var out models.WeddingData
	prov := make(map[string]models.Provenance)

	pick := func(tag, heurVal, modelVal string, heuristicWins bool) string {
		switch {
		case heurVal != "" && (heuristicWins || modelVal == ""):
			prov[tag] = models.ProvenanceHeuristic
			return heurVal
		case modelVal != "":
			prov[tag] = models.ProvenanceModel
			return modelVal
		}
		return ""
	}

	out.Partner1Name = pick("partner1_name", heur.Partner1Name, model.Partner1Name, true)
	out.Partner2Name = pick("partner2_name", heur.Partner2Name, model.Partner2Name, true)
	out.WeddingDate = pick("wedding_date", heur.WeddingDate, NormalizeDate(model.WeddingDate), true)
	out.WeddingTime = pick("wedding_time", heur.WeddingTime, model.WeddingTime, false)
	out.DressCode = pick("dress_code", heur.DressCode, model.DressCode, false)

	out.CeremonyVenueName = pick("ceremony_venue_name", heur.CeremonyVenueName, model.CeremonyVenueName, false)
	out.CeremonyVenueAddress = pick("ceremony_venue_address", heur.CeremonyVenueAddress, model.CeremonyVenueAddress, false)
	out.ReceptionVenueName = pick("reception_venue_name", heur.ReceptionVenueName, model.ReceptionVenueName, false)
	out.ReceptionVenueAddress = pick("reception_venue_address", heur.ReceptionVenueAddress, model.ReceptionVenueAddress, false)
	out.ReceptionTime = pick("reception_time", heur.ReceptionTime, model.ReceptionTime, false)

	out.Events = pickList(prov, "events", heur.Events, model.Events)
	out.Accommodations = pickList(prov, "accommodations", heur.Accommodations, model.Accommodations)
	out.FAQs = pickList(prov, "faqs", heur.FAQs, model.FAQs)

	out.RegistryURLs = mergeURLs(heur.RegistryURLs, model.RegistryURLs)
	if len(out.RegistryURLs) > 0 {
		if len(heur.RegistryURLs) > 0 {
			prov["registry_urls"] = models.ProvenanceHeuristic
		} else {
			prov["registry_urls"] = models.ProvenanceModel
		}
	}

	out.RSVPURL = pick("rsvp_url", heur.RSVPURL, model.RSVPURL, true)
	out.AdditionalNotes = pick("additional_notes", heur.AdditionalNotes, model.AdditionalNotes, false)

	return out, prov
}

func pickList[T any](prov map[string]models.Provenance, tag string, heur, model []T) []T {
	if len(model) > 0 {
		prov[tag] = models.ProvenanceModel
		return model
	}
	if len(heur) > 0 {
		prov[tag] = models.ProvenanceHeuristic
		return heur
	}
	return nil
}

// mergeURLs keeps heuristic links first, then appends model links that were
// not already found.
func mergeURLs(heur, model []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range [][]string{heur, model} {
		for _, u := range list {
			if u == "" {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
