// Package assets holds the compiled-in game content: the location
// graph, default templates, and the storyteller prompts. On-disk
// templates can override any of it.
package assets

// LocationDef describes one place the player can stand in.
type LocationDef struct {
	ID          string
	Name        string
	Description string // fallback text when the story agent is disabled
	Connections []string
	NPCs        []string // NPC template ids that spawn here
	Events      []string // event template ids that can trigger here
}

// Locations is the travel graph, keyed by location id.
var Locations = map[string]LocationDef{
	"crossroads": {
		ID:          "crossroads",
		Name:        "The Crossroads",
		Description: "Four rutted roads meet beneath a leaning signpost. A merchant's stall stands against the dusk, its lantern already lit.",
		Connections: []string{"old-mill", "greenhollow", "barrow-downs"},
		NPCs:        []string{"wandering-merchant"},
		Events:      []string{"merchant-request"},
	},
	"old-mill": {
		ID:          "old-mill",
		Name:        "The Old Mill",
		Description: "The mill wheel turns though no grain has passed here in years. Flour dust hangs in the air like pale fog.",
		Connections: []string{"crossroads", "greenhollow"},
		NPCs:        []string{"miller-ghost"},
		Events:      []string{"creaking-wheel"},
	},
	"greenhollow": {
		ID:          "greenhollow",
		Name:        "Greenhollow Village",
		Description: "Thatched roofs huddle around a well. Somewhere a door bangs shut, and the square is quieter than it should be.",
		Connections: []string{"crossroads", "old-mill"},
		NPCs:        []string{"village-elder"},
		Events:      []string{},
	},
	"barrow-downs": {
		ID:          "barrow-downs",
		Name:        "The Barrow Downs",
		Description: "Low grass mounds stretch to the horizon, each one a grave older than any map. The wind here carries voices.",
		Connections: []string{"crossroads"},
		NPCs:        []string{},
		Events:      []string{"barrow-whisper"},
	},
}

// LocationLore holds extra flavor lines shown when arriving somewhere.
var LocationLore = map[string][]string{
	"crossroads": {
		"They say every road from the Crossroads leads home, eventually.",
		"A rusted gibbet hangs empty over the eastern fork.",
	},
	"old-mill": {
		"The miller drowned in his own millpond, or so the village tells it.",
	},
	"greenhollow": {
		"Greenhollow pays its tithes in silence these days.",
	},
	"barrow-downs": {
		"Do not answer the wind. Whatever it offers.",
	},
}
