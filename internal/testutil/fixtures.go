package testutil

import "github.com/roach88/lodestar/internal/ir"

// Graph ids used by Prologue.
const (
	PrologueID     = "quest_main_prologue"
	StationID      = "quest_main_station"
	SalvageID      = "quest_side_salvage"
	NyxDialogueID  = "dialogue_nyx_intro"
	PrologueStage1 = "quest_main_prologue_stage_1"
	PrologueStage2 = "quest_main_prologue_stage_2"
	PrologueStage3 = "quest_main_prologue_stage_3"
)

// Prologue returns a small campaign exercising every engine path:
//
//   - quest_main_prologue: no unlock requirements, three stages, a
//     skill-gated choice that chains into quest_main_station
//   - quest_main_station: unlocked by completing the prologue; holds a
//     failed ending
//   - quest_side_salvage: locked until UnlockQuest and gated on a flag
//   - dialogue_nyx_intro: offered once the companion relationship is seeded
//
// Each call returns fresh values.
func Prologue() []ir.Graph {
	return []ir.Graph{
		{
			ID:          PrologueID,
			Kind:        ir.GraphQuest,
			Title:       "Prologue: Distress Signal",
			BranchTag:   "main",
			StartNodeID: PrologueStage1,
			Nodes: map[string]ir.Node{
				PrologueStage1: {
					ID:    PrologueStage1,
					Title: "Distress Signal",
					Body:  "A faint distress signal pulses from the edge of the Proxima system.",
					Choices: []ir.Choice{
						{
							ID:   "investigate_signal",
							Text: "Investigate the distress signal",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeSetFlag, Subject: "investigatedDistressSignal"},
								{Kind: ir.OutcomeUnlockLocation, Subject: "proxima_derelict"},
								{Kind: ir.OutcomeGrantExperience, Amount: 50},
							},
							Next: ir.ToNode(PrologueStage2),
						},
						{
							ID:   "ignore_signal",
							Text: "Set course for Kepler Station",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeSetFlag, Subject: "ignoredDistressSignal"},
							},
							Next: ir.ToNode(PrologueStage3),
						},
					},
				},
				PrologueStage2: {
					ID:    PrologueStage2,
					Title: "The Derelict Ship",
					Body:  "The derelict drifts in silence, its docking clamps half open.",
					Choices: []ir.Choice{
						{
							ID:   "board_vessel",
							Text: "Dock and board the vessel",
							Requirements: []ir.Requirement{
								{Kind: ir.RequireSkillLevel, Subject: "technical", Value: 2},
							},
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeGiveItem, Subject: "derelict_core"},
								{Kind: ir.OutcomeReputationDelta, Subject: ir.FactionAlliance, Amount: 10},
							},
							Next: ir.ToGraph(StationID),
						},
						{
							ID:   "scan_hull",
							Text: "Scan the hull from a safe distance",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeSetFlag, Subject: "scannedDerelict"},
								{Kind: ir.OutcomeGrantExperience, Amount: 25},
							},
							Next: ir.ToNode(PrologueStage3),
						},
					},
				},
				PrologueStage3: {
					ID:    PrologueStage3,
					Title: "Kepler Station",
					Body:  "Kepler Station hangs over the gas giant, lights blinking in the haze.",
					Choices: []ir.Choice{
						{
							ID:   "dock_station",
							Text: "Request docking clearance",
						},
					},
				},
			},
			CompletionOutcomes: []ir.Outcome{
				{Kind: ir.OutcomeUnlockQuest, Subject: SalvageID},
				{Kind: ir.OutcomeUnlockCompanion, Subject: "nyx"},
				{Kind: ir.OutcomeGrantExperience, Amount: 100},
			},
		},
		{
			ID:          StationID,
			Kind:        ir.GraphQuest,
			Title:       "Act I: Kepler Station",
			BranchTag:   "main",
			StartNodeID: "station_arrival",
			UnlockRequirements: []ir.Requirement{
				{Kind: ir.RequireQuestCompleted, Subject: PrologueID},
			},
			Nodes: map[string]ir.Node{
				"station_arrival": {
					ID:      "station_arrival",
					Title:   "Arrival",
					Speaker: "Envoy Varga",
					Body:    "The Alliance envoy waits at the airlock. Behind her, a Syndicate broker watches.",
					Choices: []ir.Choice{
						{
							ID:   "report_alliance",
							Text: "Report to the Alliance envoy",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeReputationDelta, Subject: ir.FactionAlliance, Amount: 10},
							},
						},
						{
							ID:   "deal_syndicate",
							Text: "Sell your findings to the broker",
							Requirements: []ir.Requirement{
								{Kind: ir.RequireFactionLevel, Subject: ir.FactionSyndicate, Comparator: ir.CompareAtLeast, Value: 0},
							},
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeReputationDelta, Subject: ir.FactionSyndicate, Amount: 15},
							},
						},
						{
							ID:   "open_the_rift",
							Text: "Plug the derelict core into the station grid",
							Requirements: []ir.Requirement{
								{Kind: ir.RequireItem, Subject: "derelict_core"},
							},
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeTriggerEnding, Subject: "ending_void_consumes", Failed: true},
							},
						},
					},
				},
			},
		},
		{
			ID:          SalvageID,
			Kind:        ir.GraphQuest,
			Title:       "Salvage Rights",
			BranchTag:   "side",
			StartNodeID: "salvage_claim",
			Locked:      true,
			UnlockRequirements: []ir.Requirement{
				{Kind: ir.RequireFlag, Subject: "investigatedDistressSignal"},
			},
			Nodes: map[string]ir.Node{
				"salvage_claim": {
					ID:   "salvage_claim",
					Body: "A scrapper crew disputes your claim to the derelict.",
					Choices: []ir.Choice{
						{
							ID:   "sell_core",
							Text: "Sell them the core",
							Requirements: []ir.Requirement{
								{Kind: ir.RequireItem, Subject: "derelict_core"},
							},
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeRemoveItem, Subject: "derelict_core"},
								{Kind: ir.OutcomeReputationDelta, Subject: ir.FactionSyndicate, Amount: 10},
							},
						},
						{
							ID:   "walk_away",
							Text: "Let them have it",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeFailQuest, Subject: SalvageID},
							},
						},
						{
							ID:   "fight",
							Text: "Draw your sidearm",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeStartCombat, Subject: "scrapper_ambush"},
							},
							Next: ir.ToNode("salvage_aftermath"),
						},
					},
				},
				"salvage_aftermath": {
					ID:   "salvage_aftermath",
					Body: "The scrappers scatter into the dark.",
					Choices: []ir.Choice{
						{ID: "claim_wreck", Text: "Claim the wreck"},
					},
				},
			},
		},
		{
			ID:          NyxDialogueID,
			Kind:        ir.GraphDialogue,
			Title:       "Nyx",
			StartNodeID: "nyx_greeting",
			UnlockRequirements: []ir.Requirement{
				{Kind: ir.RequireRelationship, Subject: "nyx", Value: 50},
			},
			Nodes: map[string]ir.Node{
				"nyx_greeting": {
					ID:      "nyx_greeting",
					Speaker: "Nyx",
					Body:    "So you're the one who answered the signal.",
					Choices: []ir.Choice{
						{
							ID:   "warm",
							Text: "Glad to have you aboard.",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeRelationshipDelta, Subject: "nyx", Amount: 10},
							},
							Next: ir.ToNode("nyx_farewell"),
						},
						{
							ID:   "cold",
							Text: "Stay out of my way.",
							Outcomes: []ir.Outcome{
								{Kind: ir.OutcomeRelationshipDelta, Subject: "nyx", Amount: -15},
							},
						},
					},
				},
				"nyx_farewell": {
					ID:      "nyx_farewell",
					Speaker: "Nyx",
					Body:    "Then let's see where this ship takes us.",
					EntryOutcomes: []ir.Outcome{
						{Kind: ir.OutcomeSetFlag, Subject: "metNyx"},
					},
					Choices: []ir.Choice{
						{ID: "nod", Text: "Nod"},
					},
				},
			},
		},
	}
}
