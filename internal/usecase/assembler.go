package usecase

import (
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/adapter"
)

// documentContextPreamble introduces the uploaded-document text so the model
// knows it is background context, not a user question.
const documentContextPreamble = "The following is the content of a document the user uploaded. " +
	"Use it as background context when answering:\n\n"

// Assembler builds the provider turn list for one conversation turn. The
// order is fixed: the document-context turn (when a document is loaded),
// then the history snapshot in chronological order, then the new user text.
// Assembly is pure; an empty snapshot and absent document are both fine.
type Assembler struct {
	policy ContextPolicy
}

func NewAssembler(policy ContextPolicy) *Assembler {
	if policy == nil {
		policy = FullHistoryPolicy{}
	}
	return &Assembler{policy: policy}
}

// Build returns the ordered turns for a request. The snapshot must be taken
// before the new user text lands in the log, so the final turn is not
// duplicated. The configured policy may trim history turns, but the document
// turn and the final user turn always survive.
func (a *Assembler) Build(snapshot []model.Message, document string, hasDocument bool, userText string) []adapter.Turn {
	history := make([]adapter.Turn, 0, len(snapshot))
	for _, m := range snapshot {
		role := adapter.RoleUser
		if m.Sender == model.SenderBot {
			role = adapter.RoleModel
		}
		history = append(history, adapter.Turn{Role: role, Text: m.Text})
	}

	var fixed []adapter.Turn
	if hasDocument {
		fixed = append(fixed, adapter.Turn{Role: adapter.RoleUser, Text: documentContextPreamble + document})
	}
	final := adapter.Turn{Role: adapter.RoleUser, Text: userText}

	history = a.policy.Trim(append(fixed, final), history)

	out := make([]adapter.Turn, 0, len(fixed)+len(history)+1)
	out = append(out, fixed...)
	out = append(out, history...)
	out = append(out, final)
	return out
}
