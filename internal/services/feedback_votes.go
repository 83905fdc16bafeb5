package services

import (
	"context"
	"database/sql"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// VoteResult reports the post-transition vote state for a feedback item.
// UserVote is empty when the transition cancelled the vote.
type VoteResult struct {
	FeedbackID int    `json:"feedback_id"`
	UserVote   string `json:"user_vote"`
	Upvotes    int    `json:"upvotes"`
	Downvotes  int    `json:"downvotes"`
}

// VoteFeedback runs the vote toggle state machine in one transaction:
// no vote + request inserts, same type cancels, different type switches.
// The counters on user_feedback are updated in the same transaction so they
// always equal the live vote rows.
func (s *FeedbackService) VoteFeedback(ctx context.Context, feedbackID, userID int, voteType string) (result0 *VoteResult, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "vote_feedback",
		observability.AttributeFeedbackID(feedbackID), observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	vt := models.VoteType(voteType)
	if !vt.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidVoteType, "invalid vote type: %s", voteType)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT id FROM user_feedback WHERE id = $1 FOR UPDATE`, feedbackID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to load feedback")
	}

	var currentType string
	err = tx.QueryRowContext(ctx,
		`SELECT vote_type FROM feedback_votes WHERE feedback_id = $1 AND user_id = $2`, feedbackID, userID).
		Scan(&currentType)
	if err != nil && err != sql.ErrNoRows {
		return nil, contextutils.WrapError(err, "failed to load current vote")
	}
	hadVote := err == nil
	err = nil

	var userVote string
	switch {
	case !hadVote:
		// no_vote -> voted
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO feedback_votes (feedback_id, user_id, vote_type) VALUES ($1, $2, $3)`,
			feedbackID, userID, vt); err != nil {
			return nil, contextutils.WrapError(err, "failed to insert vote")
		}
		if _, err = tx.ExecContext(ctx, counterDelta(vt, +1), feedbackID); err != nil {
			return nil, contextutils.WrapError(err, "failed to update vote counter")
		}
		userVote = string(vt)

	case currentType == string(vt):
		// same type again cancels
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM feedback_votes WHERE feedback_id = $1 AND user_id = $2`, feedbackID, userID); err != nil {
			return nil, contextutils.WrapError(err, "failed to delete vote")
		}
		if _, err = tx.ExecContext(ctx, counterDelta(vt, -1), feedbackID); err != nil {
			return nil, contextutils.WrapError(err, "failed to update vote counter")
		}
		userVote = ""

	default:
		// switch direction, both counters move together
		if _, err = tx.ExecContext(ctx,
			`UPDATE feedback_votes SET vote_type = $1 WHERE feedback_id = $2 AND user_id = $3`,
			vt, feedbackID, userID); err != nil {
			return nil, contextutils.WrapError(err, "failed to switch vote")
		}
		if _, err = tx.ExecContext(ctx, counterSwitch(vt), feedbackID); err != nil {
			return nil, contextutils.WrapError(err, "failed to update vote counters")
		}
		userVote = string(vt)
	}

	result := &VoteResult{FeedbackID: feedbackID, UserVote: userVote}
	err = tx.QueryRowContext(ctx, `SELECT upvotes, downvotes FROM user_feedback WHERE id = $1`, feedbackID).
		Scan(&result.Upvotes, &result.Downvotes)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to read vote counters")
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}
	return result, nil
}

func counterDelta(vt models.VoteType, delta int) string {
	column := "upvotes"
	if vt == models.VoteDownvote {
		column = "downvotes"
	}
	op := "+ 1"
	if delta < 0 {
		op = "- 1"
	}
	return "UPDATE user_feedback SET " + column + " = " + column + " " + op + " WHERE id = $1"
}

// counterSwitch moves one count from the opposite column to vt's column.
func counterSwitch(vt models.VoteType) string {
	if vt == models.VoteUpvote {
		return `UPDATE user_feedback SET upvotes = upvotes + 1, downvotes = downvotes - 1 WHERE id = $1`
	}
	return `UPDATE user_feedback SET upvotes = upvotes - 1, downvotes = downvotes + 1 WHERE id = $1`
}
