package usecases

import (
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/lively-to/lively/internal/core/domain"
	"github.com/lively-to/lively/internal/pkg/metrics"
)

// Normalizer classifies a raw workflow response into exactly one of the two
// result shapes. The workflow service guarantees no fixed schema: the response
// may be a plain string, an envelope with a `data.outputs` array, a legacy
// named-outputs object, or a bare object carrying `locations`. Rules run in
// strict order and the first match wins; nothing here ever returns an error —
// any shape the rules cannot place degrades to a message carrying the best
// available text.
type Normalizer struct {
	log *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{log: log}
}

// rule is one classification step: it either extracts a result or passes.
type rule struct {
	name  string
	apply func(parsed gjson.Result) (domain.NormalizedResult, bool)
}

// Normalize applies the ordered rule set to a raw workflow response.
func (n *Normalizer) Normalize(raw string) domain.NormalizedResult {
	if !gjson.Valid(raw) {
		return domain.MessageResult(raw)
	}
	parsed := gjson.Parse(raw)

	rules := []rule{
		{"locations_from_outputs", n.locationsFromOutputs},
		{"message_from_outputs", n.messageFromOutputs},
		{"message_from_named_outputs", n.messageFromNamedOutputs},
		{"top_level_locations", n.topLevelLocations},
		{"bare_json_string", n.bareJSONString},
	}

	for _, r := range rules {
		if res, ok := r.apply(parsed); ok {
			n.log.Debug("response classified", "rule", r.name, "kind", res.Kind)
			return res
		}
	}

	// Last resort: hand the raw text through rather than failing the request.
	n.log.Debug("response classified", "rule", "raw_passthrough", "kind", domain.KindMessage)
	return domain.MessageResult(raw)
}

// locationsFromOutputs scans data.outputs (array shape) for a JSON-typed
// output whose value holds a locations array. Scan order is the array's own
// order; the first structurally valid entry wins even when later entries
// would also match.
func (n *Normalizer) locationsFromOutputs(parsed gjson.Result) (domain.NormalizedResult, bool) {
	outputs := parsed.Get("data.outputs")
	if !outputs.IsArray() {
		return domain.NormalizedResult{}, false
	}

	var result domain.NormalizedResult
	found := false
	outputs.ForEach(func(_, out gjson.Result) bool {
		if out.Get("type").String() != "JSON" {
			return true
		}
		payload := out.Get("value")
		if payload.Type == gjson.String {
			// String-encoded JSON payload; skip entries that don't parse.
			if !gjson.Valid(payload.String()) {
				return true
			}
			payload = gjson.Parse(payload.String())
		}
		locs := payload.Get("locations")
		if !locs.IsArray() {
			return true
		}
		result = domain.LocationsResult(n.extractLocations(locs))
		found = true
		return false
	})
	return result, found
}

// messageFromOutputs scans data.outputs (array shape) for a STRING-typed
// output with a string value. A second pass accepts any non-JSON-typed output
// carrying a string value, matching the upstream service's looser envelopes.
func (n *Normalizer) messageFromOutputs(parsed gjson.Result) (domain.NormalizedResult, bool) {
	outputs := parsed.Get("data.outputs")
	if !outputs.IsArray() {
		return domain.NormalizedResult{}, false
	}

	var text string
	found := false
	outputs.ForEach(func(_, out gjson.Result) bool {
		v := out.Get("value")
		if out.Get("type").String() == "STRING" && v.Type == gjson.String && v.String() != "" {
			text = v.String()
			found = true
			return false
		}
		return true
	})
	if !found {
		outputs.ForEach(func(_, out gjson.Result) bool {
			v := out.Get("value")
			if out.Get("type").String() != "JSON" && v.Type == gjson.String && v.String() != "" {
				text = v.String()
				found = true
				return false
			}
			return true
		})
	}
	if !found {
		return domain.NormalizedResult{}, false
	}
	return domain.MessageResult(text), true
}

// messageFromNamedOutputs handles the legacy shape where data.outputs is an
// object of named outputs (or a single bare output) instead of an array.
func (n *Normalizer) messageFromNamedOutputs(parsed gjson.Result) (domain.NormalizedResult, bool) {
	outputs := parsed.Get("data.outputs")
	if !outputs.IsObject() {
		return domain.NormalizedResult{}, false
	}

	// Single bare output: {"data":{"outputs":{"type":"STRING","value":"..."}}}
	if v := outputs.Get("value"); v.Type == gjson.String && v.String() != "" {
		return domain.MessageResult(v.String()), true
	}

	var text string
	found := false
	outputs.ForEach(func(_, entry gjson.Result) bool {
		v := entry.Get("value")
		if entry.Get("type").String() == "STRING" && v.Type == gjson.String && v.String() != "" {
			text = v.String()
			found = true
			return false
		}
		return true
	})
	if !found {
		return domain.NormalizedResult{}, false
	}
	return domain.MessageResult(text), true
}

// topLevelLocations accepts a bare object with a locations array and no
// data.outputs wrapper.
func (n *Normalizer) topLevelLocations(parsed gjson.Result) (domain.NormalizedResult, bool) {
	locs := parsed.Get("locations")
	if !locs.IsArray() {
		return domain.NormalizedResult{}, false
	}
	return domain.LocationsResult(n.extractLocations(locs)), true
}

// bareJSONString unwraps a response that is just a JSON-encoded string.
func (n *Normalizer) bareJSONString(parsed gjson.Result) (domain.NormalizedResult, bool) {
	if parsed.Type != gjson.String {
		return domain.NormalizedResult{}, false
	}
	return domain.MessageResult(parsed.String()), true
}

// extractLocations repairs each candidate record and drops invalid ones.
// Repairs: the upstream "lattitude" misspelling (consulted only when latitude
// is absent or falsy, never merged) and string-typed numerics. Records whose
// coordinates fail validation after repair are dropped with a diagnostic,
// never surfaced as a user-facing error.
func (n *Normalizer) extractLocations(locs gjson.Result) []domain.LocationRecord {
	records := make([]domain.LocationRecord, 0, int(locs.Get("#").Int()))
	locs.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			n.log.Warn("dropping non-object location entry", "raw", rec.Raw)
			metrics.LocationsDropped.Inc()
			return true
		}

		latRaw := rec.Get("latitude")
		if isFalsy(latRaw) {
			latRaw = rec.Get("lattitude")
		}
		lat, latOK := domain.CoerceNumeric(latRaw.Value())
		lon, lonOK := domain.CoerceNumeric(rec.Get("longitude").Value())

		name := rec.Get("location_name").String()
		if !latOK || !lonOK || !domain.ValidCoordinates(lat, lon) {
			n.log.Warn("dropping location with invalid coordinates",
				"name", name,
				"latitude", latRaw.Raw,
				"longitude", rec.Get("longitude").Raw,
			)
			metrics.LocationsDropped.Inc()
			return true
		}

		records = append(records, domain.LocationRecord{
			Name:       name,
			Address:    rec.Get("location_address").String(),
			PostalCode: rec.Get("location_postal_code").String(),
			Latitude:   lat,
			Longitude:  lon,
			Reasoning:  rec.Get("reasoning").String(),
			Type:       domain.ResourceType(rec.Get("resource_type").String()),
			Hours:      rec.Get("hours").String(),
		})
		return true
	})
	return records
}

// isFalsy mirrors the upstream JS truthiness check used to decide whether to
// fall back to the misspelled key: missing, null, empty string, 0, and false
// all defer to "lattitude".
func isFalsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return true
	case gjson.False:
		return true
	case gjson.String:
		return v.String() == ""
	case gjson.Number:
		return v.Float() == 0
	default:
		return !v.Exists()
	}
}
