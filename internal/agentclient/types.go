package agentclient

// Source is a repository the Agent API can attach a session to.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// sessionWire maps to the Agent API's session JSON response. State is
// the Agent's raw state string; callers get the derived model.SessionStatus
// via Session.Status. The schema here is stable, so it is decoded with
// encoding/json rather than gjson.
type sessionWire struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	State       string `json:"state"`
	PullRequest *struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"pullRequest,omitempty"`
}

type createSessionRequest struct {
	Prompt              string `json:"prompt"`
	Title               string `json:"title"`
	Source              string `json:"source,omitempty"`
	StartingBranch      string `json:"startingBranch,omitempty"`
	AutoCreatePR        bool   `json:"autoCreatePr"`
	RequirePlanApproval bool   `json:"requirePlanApproval"`
}

type sendMessageRequest struct {
	Prompt string `json:"prompt"`
}

type listSourcesResponse struct {
	Sources []Source `json:"sources"`
}
