// Package template turns authored templates into live NPC, quest, and
// story-event instances, and renders text content for scenes. Templates
// are static JSON authored ahead of time; the AI agent fills in the
// parts meant to vary at runtime.
package template

import "time"

// NPCTemplate describes a kind of non-player character.
type NPCTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Personality []string `json:"personality"`
	Greeting    string   `json:"greeting"`
	// DialogueSeed primes the AI agent when this NPC speaks.
	DialogueSeed string `json:"dialogue_seed"`
}

// ObjectiveTemplate is one goal within a quest template. Item names the
// inventory entry that fulfills the objective; collecting that many of
// the item completes it.
type ObjectiveTemplate struct {
	Description string `json:"description"`
	Item        string `json:"item,omitempty"`
	Required    int    `json:"required"`
}

// Reward is granted when a quest completes.
type Reward struct {
	XP    int      `json:"xp"`
	Items []string `json:"items"`
}

// QuestTemplate describes a kind of quest.
type QuestTemplate struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Objectives  []ObjectiveTemplate `json:"objectives"`
	Reward      Reward              `json:"reward"`
}

// ChoiceTemplate is one option the player can pick during a story
// event, together with its effects on world state.
type ChoiceTemplate struct {
	Text     string `json:"text"`
	SetsFlag string `json:"sets_flag,omitempty"`
	Counter  string `json:"counter,omitempty"`
	Delta    int    `json:"delta,omitempty"`
	// GivesItem puts ItemCount of the item in the inventory (one when
	// ItemCount is zero).
	GivesItem string `json:"gives_item,omitempty"`
	ItemCount int    `json:"item_count,omitempty"`
	// Faction/Standing shift reputation with a faction.
	Faction  string `json:"faction,omitempty"`
	Standing int    `json:"standing,omitempty"`
	// PutsToRest archives every NPC of this template at the event's
	// location.
	PutsToRest string `json:"puts_to_rest,omitempty"`
}

// EventTemplate describes a kind of story event.
type EventTemplate struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Location string           `json:"location"`
	Choices  []ChoiceTemplate `json:"choices"`
}

// Interaction is one recorded exchange with an NPC.
type Interaction struct {
	At   time.Time `json:"at"`
	Note string    `json:"note"`
}

// NPCInstance is a live NPC generated from a template.
type NPCInstance struct {
	InstanceID   string        `json:"instance_id"`
	TemplateID   string        `json:"template_id"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	Personality  []string      `json:"personality"`
	Greeting     string        `json:"greeting"`
	DialogueSeed string        `json:"dialogue_seed"`
	Location     string        `json:"location"`
	Interactions []Interaction `json:"interactions"`
	LastUpdated  time.Time     `json:"last_updated"`
}

// Objective tracks progress on one quest goal.
type Objective struct {
	Description string `json:"description"`
	Item        string `json:"item,omitempty"`
	Progress    int    `json:"progress"`
	Required    int    `json:"required"`
}

// Quest statuses.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
)

// QuestInstance is a live quest generated from a template.
type QuestInstance struct {
	QuestID     string      `json:"quest_id"`
	TemplateID  string      `json:"template_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Objectives  []Objective `json:"objectives"`
	Reward      Reward      `json:"reward"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Event statuses.
const (
	EventPending  = "pending"
	EventResolved = "resolved"
)

// EventInstance is a live story event generated from a template.
type EventInstance struct {
	EventID     string           `json:"event_id"`
	TemplateID  string           `json:"template_id"`
	Title       string           `json:"title"`
	Text        string           `json:"text"`
	Location    string           `json:"location"`
	Status      string           `json:"status"`
	Choices     []ChoiceTemplate `json:"choices"`
	ChoiceMade  string           `json:"choice_made,omitempty"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Defaults bundles the compiled-in templates registered before any
// on-disk templates are loaded.
type Defaults struct {
	NPCs   []NPCTemplate
	Quests []QuestTemplate
	Events []EventTemplate
}
