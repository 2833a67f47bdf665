package events

// Typed views of the GitHub webhook payloads. Each event decodes only the
// fields its rendering needs; everything else in the payload is ignored.

type repoRef struct {
	FullName   string `json:"full_name"`
	ForksCount int    `json:"forks_count"`
}

type userRef struct {
	Login string `json:"login"`
}

// envelope is the part every payload shares: the source repository.
type envelope struct {
	Repository repoRef `json:"repository"`
	Sender     userRef `json:"sender"`
}

type pushPayload struct {
	Ref     string `json:"ref"`
	Compare string `json:"compare"`
	Pusher  struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Sender  userRef `json:"sender"`
	Commits []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"commits"`
}

type pullRequestPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Title  string  `json:"title"`
		State  string  `json:"state"`
		Merged bool    `json:"merged"`
		URL    string  `json:"html_url"`
		User   userRef `json:"user"`
		Head   struct {
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
}

type issuesPayload struct {
	Action string `json:"action"`
	Issue  struct {
		Number int     `json:"number"`
		Title  string  `json:"title"`
		State  string  `json:"state"`
		URL    string  `json:"html_url"`
		User   userRef `json:"user"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
	} `json:"issue"`
}

type releasePayload struct {
	Action  string `json:"action"`
	Release struct {
		TagName    string  `json:"tag_name"`
		URL        string  `json:"html_url"`
		Prerelease bool    `json:"prerelease"`
		Body       string  `json:"body"`
		Author     userRef `json:"author"`
	} `json:"release"`
}

type forkPayload struct {
	Forkee struct {
		FullName string `json:"full_name"`
		URL      string `json:"html_url"`
	} `json:"forkee"`
	Sender userRef `json:"sender"`
}

type refPayload struct {
	Ref     string  `json:"ref"`
	RefType string  `json:"ref_type"`
	Sender  userRef `json:"sender"`
}
