package assets

import (
	"fmt"
	"strings"
)

// NarratorPrompt is the system prompt for the story agent.
const NarratorPrompt = `You are the narrator of a low-fantasy role-playing game. ` +
	`Write vivid second-person prose, two to four sentences, grounded in what the ` +
	`player can see and hear. Never speak for the player, never break character, ` +
	`and never mention rules or game mechanics.`

// LocationPrompt builds the narration request for arriving somewhere.
func LocationPrompt(locationName, playerName string, flags []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Describe the scene as %s arrives at %s.", playerName, locationName)
	if len(flags) > 0 {
		fmt.Fprintf(&sb, " Story so far: %s.", strings.Join(flags, "; "))
	}
	return sb.String()
}

// DialoguePrompt builds the request for one line of NPC dialogue.
func DialoguePrompt(npcName, seed, playerName string) string {
	return fmt.Sprintf(
		"Write what %s says next to %s. Character notes: %s. One short paragraph of spoken dialogue only.",
		npcName, playerName, seed)
}
