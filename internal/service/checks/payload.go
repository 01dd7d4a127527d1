package checks

import (
	gh "github.com/google/go-github/v66/github"
)

const (
	StatusCompleted = "completed"

	ConclusionActionRequired = "action_required"
	ConclusionSuccess        = "success"

	ActionIdentifierFix = "fix"

	defaultExternalID = "checkrun"
	outputTitle       = "checkrun"
	outputText        = "Created by the checkrun GitHub App."
)

func (r *runner) createPayload(headSHA, deliveryID string) *gh.CreateCheckRunOptions {
	now := gh.Timestamp{Time: r.now().UTC()}

	externalID := deliveryID
	if externalID == "" {
		externalID = defaultExternalID
	}

	opts := &gh.CreateCheckRunOptions{
		Name:        r.cfg.CheckName,
		HeadSHA:     headSHA,
		ExternalID:  gh.String(externalID),
		Status:      gh.String(StatusCompleted),
		Conclusion:  gh.String(ConclusionActionRequired),
		StartedAt:   &now,
		CompletedAt: &now,
		Output: &gh.CheckRunOutput{
			Title:   gh.String(outputTitle),
			Summary: gh.String("This check run needs your attention (action_required)."),
			Text:    gh.String(outputText),
			Annotations: []*gh.CheckRunAnnotation{{
				Path:            gh.String("README.md"),
				StartLine:       gh.Int(1),
				EndLine:         gh.Int(1),
				StartColumn:     gh.Int(1),
				EndColumn:       gh.Int(5),
				AnnotationLevel: gh.String("failure"),
				Title:           gh.String("README.md annotation"),
				Message:         gh.String("Annotation on README.md reported at failure level."),
				RawDetails:      gh.String("Annotation on README.md reported at failure level."),
			}},
			Images: []*gh.CheckRunImage{{
				Alt:      gh.String("checkrun image"),
				ImageURL: gh.String("https://github.githubassets.com/images/modules/logos_page/GitHub-Mark.png"),
				Caption:  gh.String("checkrun image caption"),
			}},
		},
		Actions: []*gh.CheckRunAction{{
			Label:       "Mark as fixed",
			Description: "Resolve this check run.",
			Identifier:  ActionIdentifierFix,
		}},
	}
	if r.cfg.DetailsURL != "" {
		opts.DetailsURL = gh.String(r.cfg.DetailsURL)
	}
	return opts
}

// updateCheckRun is sent instead of gh.UpdateCheckRunOptions, whose name
// field is always serialized.
type updateCheckRun struct {
	Conclusion string             `json:"conclusion"`
	Output     *gh.CheckRunOutput `json:"output"`
}

func updatePayload() *updateCheckRun {
	return &updateCheckRun{
		Conclusion: ConclusionSuccess,
		Output: &gh.CheckRunOutput{
			Title:   gh.String(outputTitle),
			Summary: gh.String("The requested action resolved this check run (success)."),
			Text:    gh.String(outputText),
		},
	}
}
