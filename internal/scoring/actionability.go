package scoring

import (
	"context"
	"fmt"

	"github.com/nao1215/pagescope/internal/model"
)

// Actionability check IDs.
const (
	CheckDeclaredActions     = "declared_actions"
	CheckActionCompleteness  = "action_completeness"
	CheckDeclaredLinks       = "declared_links"
	CheckHeaderCompleteness  = "header_completeness"
	CheckExtractableContent  = "extractable_content"
	protocolHeaderFieldCount = 7
)

var actionabilityRules = struct {
	actions, completeness, links, headers, content rule
}{
	actions: rule{
		id: CheckDeclaredActions, name: "Declared actions", maxPoints: 7,
		scale: atLeast(3, 7, 2, 5, 1, 3), pass: passValueAtLeast(1),
	},
	completeness: rule{
		id: CheckActionCompleteness, name: "Action completeness", maxPoints: 5,
		scale: atLeast(1, 5, 0.5, 3, anyPositive, 1), pass: passValueAtLeast(1),
	},
	links: rule{
		id: CheckDeclaredLinks, name: "Declared links", maxPoints: 5,
		scale: atLeast(5, 5, 3, 3, 1, 1), pass: passValueAtLeast(3),
	},
	headers: rule{
		id: CheckHeaderCompleteness, name: "Header completeness", maxPoints: 4,
		scale: atLeast(7, 4, 5, 3, 3, 1), pass: passValueAtLeast(5),
	},
	content: rule{
		id: CheckExtractableContent, name: "Extractable content", maxPoints: 4,
		scale: atLeast(300, 4, 150, 2, 50, 1), pass: passValueAtLeast(150),
	},
}

type actionability struct{}

func (a *actionability) Category() string { return model.CategoryActionability }

func (a *actionability) MaxPoints() int { return 25 }

func (a *actionability) Evaluate(_ context.Context, in Input) []model.ScoreCheck {
	rules := actionabilityRules
	probe := in.Probe

	var (
		actions []model.DeclaredAction
		links   []model.DeclaredLink
	)
	if fm := probe.Frontmatter; fm != nil {
		actions, links = fm.Actions, fm.InternalLinks
	}

	complete := 0
	for _, action := range actions {
		if action.Complete() {
			complete++
		}
	}
	var completeness float64
	if len(actions) > 0 {
		completeness = float64(complete) / float64(len(actions))
	}

	headers := probe.HeaderCount()
	tokens := in.Page.MarkdownTokens

	return []model.ScoreCheck{
		rules.actions.evaluate(float64(len(actions)), fmt.Sprintf("%d actions declared", len(actions))),
		rules.completeness.evaluate(completeness,
			fmt.Sprintf("%d of %d actions have name, description and url", complete, len(actions))),
		rules.links.evaluate(float64(len(links)), fmt.Sprintf("%d internal links declared", len(links))),
		rules.headers.evaluate(float64(headers),
			fmt.Sprintf("%d of %d protocol headers present", headers, protocolHeaderFieldCount)),
		rules.content.evaluate(float64(tokens), fmt.Sprintf("about %d tokens of Markdown", tokens)),
	}
}
