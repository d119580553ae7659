package agentclient

import (
	"time"

	"github.com/relayforge/conductor/internal/model"
	"github.com/tidwall/gjson"
)

// parseActivities defensively walks the activities feed's untyped JSON.
// Every artifact is optional and nested, which is exactly the shape
// gjson is built for rather than a struct with three levels of pointer
// fields.
func parseActivities(body []byte) []model.Activity {
	feed := gjson.GetBytes(body, "activities")
	if !feed.IsArray() {
		return nil
	}

	var activities []model.Activity
	feed.ForEach(func(_, activity gjson.Result) bool {
		a := model.Activity{
			ID: activity.Get("id").String(),
		}
		if ct := activity.Get("createTime"); ct.Exists() {
			if parsed, err := time.Parse(time.RFC3339, ct.String()); err == nil {
				a.CreateTime = parsed
			}
		}

		if patch := activity.Get("artifacts.changeSet.gitPatch.unidiffPatch"); patch.Exists() {
			a.Artifacts.ChangeSet = &model.ChangeSet{GitPatch: &model.GitPatch{UnidiffPatch: patch.String()}}
		}

		if plan := activity.Get("artifacts.planGenerated.plan"); plan.Exists() {
			p := model.Plan{}
			if plan.IsObject() {
				p.ID = plan.Get("id").String()
				p.Text = plan.Get("text").String()
			} else {
				p.Text = plan.String()
			}
			a.Artifacts.PlanGenerated = &model.PlanGenerated{Plan: p}
		}

		if pr := activity.Get("artifacts.pullRequest"); pr.Exists() {
			a.Artifacts.PullRequest = &model.PullRequest{
				URL:         pr.Get("url").String(),
				Title:       pr.Get("title").String(),
				Description: pr.Get("description").String(),
			}
		}

		activities = append(activities, a)
		return true
	})
	return activities
}
