package metrics

import (
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time { return now.Add(-d) }

func openPR(repo string, n int, created time.Time) model.PullRequest {
	return model.PullRequest{
		Key:       join.NewKey("octo", repo, n),
		Number:    n,
		Title:     "PR",
		Author:    model.User{Login: "author", AvatarURL: "https://avatars.example.com/author"},
		CreatedAt: created,
		UpdatedAt: created,
		State:     model.StateOpen,
		URL:       "https://github.com/octo/" + repo + "/pull",
	}
}

func mergedPR(repo string, n int, created time.Time) model.PullRequest {
	pr := openPR(repo, n, created)
	pr.State = model.StateClosed
	merged := created.Add(time.Hour)
	pr.MergedAt = &merged
	return pr
}

func review(pr model.PullRequest, login string, state model.ReviewState, submitted time.Time) model.Review {
	return model.Review{
		PullKey:     pr.Key,
		Reviewer:    model.User{Login: login, AvatarURL: "https://avatars.example.com/" + login},
		State:       state,
		SubmittedAt: submitted,
	}
}

func indexOf(prs []model.PullRequest, issues []model.Issue) join.RepoIndex {
	idx := join.NewRepoIndex()
	for _, pr := range prs {
		idx.Record(pr.Key, pr.Key.Repo)
	}
	for _, is := range issues {
		idx.Record(is.Key, is.Key.Repo)
	}
	return idx
}

func reviewSet(prs []model.PullRequest, reviews ...model.Review) *join.ReviewSet[model.Review] {
	set := join.NewReviewSet[model.Review]()
	for _, pr := range prs {
		set.Add(pr.Key)
	}
	for _, r := range reviews {
		set.Add(r.PullKey, r)
	}
	return set
}

func issue(repo string, n int, state string, created, updated time.Time, labels ...string) model.Issue {
	is := model.Issue{
		Key:       join.NewKey("octo", repo, n),
		Number:    n,
		Title:     "Issue",
		Author:    model.User{Login: "reporter"},
		CreatedAt: created,
		UpdatedAt: updated,
		State:     state,
		URL:       "https://github.com/octo/" + repo + "/issues",
	}
	for _, l := range labels {
		is.Labels = append(is.Labels, model.Label{Name: l})
	}
	return is
}
