package classifier

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Item is one message to judge plus its conversational window. The
// window includes the target message itself.
type Item struct {
	Message store.Message
	Context []store.Message
}

const promptHeader = `You are analyzing WhatsApp messages between two people. Your task is to identify messages that suggest "things to do" - activities, places to visit, events to attend, trips to take, etc.

For each message marked with >>>, determine:
1. Is this a suggestion for something to do together? (yes/no)
2. If yes, what is the activity/thing to do?
3. If yes, what location is mentioned (if any)?

Focus on:
- Suggestions to visit places (restaurants, beaches, parks, cities)
- Activities to try (hiking, kayaking, concerts, shows)
- Travel plans (trips, hotels, Airbnb)
- Events to attend (festivals, markets, movies)
- Experiences to have ("we should try...", "let's go to...")

Ignore:
- Mundane tasks (groceries, cleaning, work)
- Past events (things they already did)
- Vague statements without actionable suggestions
- Just sharing links without suggesting to go/do something
`

const promptFooter = `
Respond in this exact JSON format (array of objects, one per message):
` + "```json" + `
[
  {
    "message_id": <id>,
    "is_suggestion": true/false,
    "activity": "<what to do - null if not a suggestion>",
    "location": "<place/location mentioned - null if none or not a suggestion>",
    "confidence": <0.0-1.0 how confident you are>
  },
  ...
]
` + "```" + `

Only include messages that ARE suggestions (is_suggestion: true). Skip the rest.
Be concise with activity descriptions (under 100 chars).
For location, extract specific place names if mentioned.
`

// BuildPrompt renders a batch of items into a single classification
// prompt. The target line of each window is prefixed with ">>>" so the
// model knows which message it is judging.
func BuildPrompt(items []Item) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	for i, item := range items {
		fmt.Fprintf(&b, "\n---\nMESSAGE #%d (ID: %d)\nContext:\n", i+1, item.Message.ID)
		for _, ctx := range item.Context {
			marker := "   "
			if ctx.ID == item.Message.ID {
				marker = ">>>"
			}
			fmt.Fprintf(&b, "%s %s: %s\n", marker, ctx.Sender, ctx.Content)
		}
		b.WriteString("---\n")
	}

	b.WriteString(promptFooter)
	return b.String()
}
