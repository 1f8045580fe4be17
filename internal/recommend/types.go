// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"fmt"
	"time"
)

// User is a member of the social graph.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`

	// WatchedCount is the profile's total watched films. Nil when never observed.
	WatchedCount *int `json:"watched_count,omitempty"`
}

// Film is the metadata passed through to scored output.
type Film struct {
	ID    int    `json:"film_id"`
	Title string `json:"title"`
	Year  *int   `json:"year,omitempty"`

	// Genres is free text as extracted; empty when unknown.
	Genres string `json:"genres,omitempty"`
}

// SimilarityScore is the taste similarity between the root user and one followee.
type SimilarityScore struct {
	FolloweeID  int    `json:"followee_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`

	// Similarity is the combined score in [0, 1].
	Similarity float64 `json:"similarity"`

	// Jaccard and RatingSimilarity are the batch-normalized components.
	Jaccard          float64 `json:"jaccard"`
	RatingSimilarity float64 `json:"rating_similarity"`

	Overlap      int `json:"overlap"`
	RatedOverlap int `json:"rated_overlap"`

	// AvgDiff is the mean absolute z-score difference on shared ratings.
	AvgDiff *float64 `json:"avg_diff,omitempty"`
}

// ScoredItem is a candidate film with its aggregated social score.
type ScoredItem struct {
	Film

	// Score is unbounded and carries sign; negative means followees disliked it.
	Score float64 `json:"score"`
}

// ContributorKind tags who produced a contribution.
type ContributorKind string

const (
	// KindFollowee marks a contribution from a followed user.
	KindFollowee ContributorKind = "followee"
	// KindRootWatchlist marks the root user's own watchlist entry.
	KindRootWatchlist ContributorKind = "root_watchlist"
)

// Contributor is either RootWatchlist or Followee.
type Contributor interface {
	Kind() ContributorKind
	Label() string
}

// RootWatchlist stands for the root user's own watchlist.
type RootWatchlist struct{}

// Kind implements Contributor.
func (RootWatchlist) Kind() ContributorKind { return KindRootWatchlist }

// Label implements Contributor.
func (RootWatchlist) Label() string { return "watchlist" }

// Followee is a followed user with their similarity to the root.
type Followee struct {
	ID         int
	Username   string
	Similarity float64
}

// Kind implements Contributor.
func (Followee) Kind() ContributorKind { return KindFollowee }

// Label implements Contributor.
func (f Followee) Label() string { return f.Username }

// Contribution is one contributor's share of one film's score.
type Contribution struct {
	FilmID int `json:"film_id"`

	Contributor Contributor     `json:"-"`
	Kind        ContributorKind `json:"kind"`
	FolloweeID  int             `json:"followee_id,omitempty"`
	Username    string          `json:"username"`

	Similarity        float64 `json:"similarity"`
	InteractionWeight float64 `json:"interaction_weight"`
	TimeWeight        float64 `json:"time_weight"`

	// InteractionZ is set in normalized mode only.
	InteractionZ *float64 `json:"interaction_z,omitempty"`

	Contribution float64 `json:"contribution"`
}

// SortOrder controls ranking direction.
type SortOrder string

const (
	// SortDescending ranks the strongest recommendations first.
	SortDescending SortOrder = "desc"
	// SortAscending ranks the most negative scores first.
	SortAscending SortOrder = "asc"
)

// ParseSortOrder parses an order name. The empty string is descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "desc", "descending":
		return SortDescending, nil
	case "asc", "ascending":
		return SortAscending, nil
	default:
		return "", fmt.Errorf("unknown order %q: want asc or desc", s)
	}
}

// Request asks for one root user's recommendations.
type Request struct {
	Username string `json:"username" validate:"required,min=1,max=100"`

	// Limit truncates the ranked list. Defaults to Config.Limits.DefaultLimit.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=0,max=10000"`

	Order SortOrder `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`

	// Mode overrides the configured combination mode when set.
	Mode Mode `json:"mode,omitempty" validate:"omitempty,oneof=multiplicative normalized"`

	// ExplainTop attaches contributors to the first N returned films.
	ExplainTop int `json:"explain_top,omitempty" validate:"omitempty,min=0,max=100"`

	// RequestID is generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Recommendation is a ranked film with optional attribution.
type Recommendation struct {
	ScoredItem

	Rank int `json:"rank"`

	// Contributors holds the top contributions when explained.
	Contributors []Contribution `json:"contributors,omitempty"`

	// ContributorCount is the total number of contributions behind Score.
	ContributorCount int `json:"contributor_count,omitempty"`
}

// Response is the result of Engine.Recommend.
type Response struct {
	Username string           `json:"username"`
	Items    []Recommendation `json:"items"`

	// TotalCandidates is the number of films that received a score.
	TotalCandidates int `json:"total_candidates"`

	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID   string    `json:"request_id"`
	Mode        Mode      `json:"mode"`
	Order       SortOrder `json:"order"`
	Followees   int       `json:"followees"` // followees in the similarity batch
	CurrentYear int       `json:"current_year"`
	LatencyMS   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Disagreement is one shared rated film in a similarity explanation.
type Disagreement struct {
	Film

	RootRating     float64 `json:"root_rating"`
	FolloweeRating float64 `json:"followee_rating"`
	RootZ          float64 `json:"root_z"`
	FolloweeZ      float64 `json:"followee_z"`

	// Diff is |RootZ - FolloweeZ|.
	Diff float64 `json:"diff"`
}

// SimilarityExplanation breaks down how a followee's similarity was reached.
type SimilarityExplanation struct {
	Root     User `json:"root"`
	Followee User `json:"followee"`

	// Score is nil when the followee is not followed by the root.
	Score *SimilarityScore `json:"score,omitempty"`

	SharedRated   int            `json:"shared_rated"`
	Disagreements []Disagreement `json:"disagreements"`
}
