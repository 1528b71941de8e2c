package assets

import "storyloom/internal/template"

// DefaultTemplates returns the compiled-in NPC, quest, and story-event
// templates registered before any on-disk templates load.
func DefaultTemplates() template.Defaults {
	return template.Defaults{
		NPCs: []template.NPCTemplate{
			{
				ID:           "wandering-merchant",
				Name:         "Maro the Merchant",
				Role:         "merchant",
				Personality:  []string{"shrewd", "talkative", "superstitious"},
				Greeting:     "Well met, {{.player}}! Maro's the name. You look like someone in need of rope, salt, or rumors.",
				DialogueSeed: "A shrewd, talkative traveling merchant who trades in supplies and gossip, and is privately terrified of the Barrow Downs.",
			},
			{
				ID:           "miller-ghost",
				Name:         "The Miller",
				Role:         "spirit",
				Personality:  []string{"mournful", "cryptic"},
				Greeting:     "The figure by the wheel does not turn around. \"Grain in, flour out,\" it murmurs. \"That was the whole of my life.\"",
				DialogueSeed: "The drowned miller's ghost, bound to his mill, who speaks in half-riddles about how he died and who pushed him.",
			},
			{
				ID:           "village-elder",
				Name:         "Elder Casia",
				Role:         "elder",
				Personality:  []string{"stern", "protective", "weary"},
				Greeting:     "Elder Casia looks you over from her doorstep. \"Strangers bring trouble or take it away. Which are you?\"",
				DialogueSeed: "Greenhollow's stern matriarch, who knows why the village has gone quiet and will not say unless she trusts the player.",
			},
		},
		Quests: []template.QuestTemplate{
			{
				ID:          "gather-materials",
				Title:       "Stock the Stall",
				Description: "Maro's cart lost half its goods fording the river. Gather what the road takes.",
				Objectives: []template.ObjectiveTemplate{
					{Description: "Collect coils of rope", Item: "rope", Required: 2},
					{Description: "Collect sacks of salt", Item: "salt", Required: 3},
				},
				Reward: template.Reward{XP: 60, Items: []string{"lantern"}},
			},
			{
				ID:          "quiet-village",
				Title:       "The Quiet Village",
				Description: "Greenhollow has stopped singing. Earn Elder Casia's trust and learn why.",
				Objectives: []template.ObjectiveTemplate{
					{Description: "Speak with Elder Casia", Required: 1},
					{Description: "Visit the Barrow Downs", Required: 1},
				},
				Reward: template.Reward{XP: 120},
			},
		},
		Events: []template.EventTemplate{
			{
				ID:       "merchant-request",
				Title:    "A Merchant's Plea",
				Text:     "{{.npc}} waves you over, glancing down the road as if expecting pursuit.",
				Location: "crossroads",
				Choices: []template.ChoiceTemplate{
					{Text: "Offer to help restock the stall", SetsFlag: "helped_merchant", Faction: "merchants", Standing: 1},
					{Text: "Walk on without stopping", Counter: "merchant_snubs", Delta: 1, Faction: "merchants", Standing: -1},
				},
			},
			{
				ID:       "creaking-wheel",
				Title:    "The Wheel Stops",
				Text:     "Mid-creak, the mill wheel halts. The silence that follows has weight.",
				Location: "old-mill",
				Choices: []template.ChoiceTemplate{
					{Text: "Call out to whoever stopped it", SetsFlag: "called_the_miller", PutsToRest: "miller-ghost"},
					{Text: "Salvage the hoist rope and back out", Counter: "nerves_lost", Delta: 1, GivesItem: "rope", ItemCount: 2},
				},
			},
			{
				ID:       "barrow-whisper",
				Title:    "A Voice on the Wind",
				Text:     "The wind over the mounds shapes itself into your name, {{.player}}.",
				Location: "barrow-downs",
				Choices: []template.ChoiceTemplate{
					{Text: "Answer the voice", SetsFlag: "answered_the_wind"},
					{Text: "Scrape the salt crust from the stones and go", SetsFlag: "refused_the_wind", GivesItem: "salt", ItemCount: 3},
				},
			},
		},
	}
}
