package domain

import "context"

// GameChoice is one selectable option in a scene. Label doubles as the
// identifier a player submits.
type GameChoice struct {
	Label string `json:"label"`
	Next  string `json:"next"`
}

// GameScene is one step of the narrative. Scenes without choices are
// endings; reaching one restarts the story on the next advance.
type GameScene struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Choices []GameChoice `json:"choices"`
}

// Ending reports whether the scene terminates the story.
func (s GameScene) Ending() bool {
	return len(s.Choices) == 0
}

// Choose resolves a choice label to the follow-up scene.
func (s GameScene) Choose(label string) (GameScene, error) {
	for _, c := range s.Choices {
		if c.Label == label {
			return SceneByID(c.Next)
		}
	}
	return GameScene{}, ErrInvalidChoice
}

// OpeningSceneID is where new players, and players past an ending, start.
const OpeningSceneID = "lobby"

// SceneByID looks up a scene in the story graph.
func SceneByID(id string) (GameScene, error) {
	scene, ok := gameScenes[id]
	if !ok {
		return GameScene{}, ErrSceneNotFound
	}
	return scene, nil
}

// gameScenes is the full story graph. Content ships with the binary; only
// per-user position is persisted.
var gameScenes = map[string]GameScene{
	"lobby": {
		ID:   "lobby",
		Text: "You stand in the lobby of the archive. Somewhere below, the first post ever made is said to still be laughing at its own joke.",
		Choices: []GameChoice{
			{Label: "descend to the vaults", Next: "vault"},
			{Label: "talk to the archivist", Next: "archivist"},
		},
	},
	"archivist": {
		ID:   "archivist",
		Text: "The archivist looks up from a ledger of dead formats. \"Bring me the first post,\" they say, \"and I will pin you forever.\"",
		Choices: []GameChoice{
			{Label: "offer your freshest work instead", Next: "laughed_out"},
			{Label: "promise to find it", Next: "vault"},
		},
	},
	"vault": {
		ID:   "vault",
		Text: "Racks of tagged humor stretch into the dark. One crate has no label at all. Far off, something chuckles.",
		Choices: []GameChoice{
			{Label: "follow the chuckle", Next: "shrine"},
			{Label: "open the unlabeled crate", Next: "crate"},
		},
	},
	"shrine": {
		ID:   "shrine",
		Text: "A shrine of upvotes, stacked like coins. Taking one would be so easy. The chuckle has stopped.",
		Choices: []GameChoice{
			{Label: "leave an offering", Next: "blessed"},
			{Label: "back away slowly", Next: "vault"},
		},
	},
	"crate": {
		ID:   "crate",
		Text: "Inside rests the first post. It is, honestly, not that funny. It looks at you expectantly.",
		Choices: []GameChoice{
			{Label: "bring it to the archivist", Next: "pinned"},
			{Label: "keep it for yourself", Next: "cursed"},
		},
	},
	"pinned": {
		ID:   "pinned",
		Text: "The archivist weeps with joy and pins your name to the top of the archive. Nobody can remove it. Many have tried.",
	},
	"cursed": {
		ID:   "cursed",
		Text: "Every post you make from now on gets exactly one upvote, always from yourself, always instantly. You did this.",
	},
	"blessed": {
		ID:   "blessed",
		Text: "The shrine accepts your offering. Somewhere, a repost of yours outperforms the original. The archive approves.",
	},
	"laughed_out": {
		ID:   "laughed_out",
		Text: "The archivist studies your freshest work for a long time, then files it under \"recent\". You are shown the door politely.",
	},
}

type GameProgressRepository interface {
	// GetScene returns the player's saved scene id, or "" when the player
	// has no saved progress.
	GetScene(ctx context.Context, userID int64) (string, error)
	SetScene(ctx context.Context, userID int64, sceneID string) error
}
