package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signet/internal/domain"
)

func TestTransition_AllowedEdges(t *testing.T) {
	allowed := []struct {
		from domain.DocumentStatus
		to   domain.DocumentStatus
	}{
		{domain.StatusDraft, domain.StatusReview},
		{domain.StatusDraft, domain.StatusArchived},
		{domain.StatusReview, domain.StatusApproved},
		{domain.StatusReview, domain.StatusUnderRevision},
		{domain.StatusReview, domain.StatusDeclined},
		{domain.StatusUnderRevision, domain.StatusDraft},
		{domain.StatusApproved, domain.StatusPendingSignatures},
		{domain.StatusApproved, domain.StatusArchived},
		{domain.StatusPendingSignatures, domain.StatusSigned},
		{domain.StatusPendingSignatures, domain.StatusExpired},
		{domain.StatusSigned, domain.StatusPublished},
		{domain.StatusSigned, domain.StatusArchived},
		{domain.StatusPublished, domain.StatusArchived},
	}

	for _, tc := range allowed {
		assert.NoError(t, domain.Transition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
		assert.True(t, domain.CanTransition(tc.from, tc.to))
	}
}

func TestTransition_RejectedEdges(t *testing.T) {
	rejected := []struct {
		from domain.DocumentStatus
		to   domain.DocumentStatus
	}{
		// no implicit reverse edges
		{domain.StatusReview, domain.StatusDraft},
		{domain.StatusSigned, domain.StatusPendingSignatures},
		// no skipping stages
		{domain.StatusDraft, domain.StatusApproved},
		{domain.StatusDraft, domain.StatusSigned},
		{domain.StatusDraft, domain.StatusPendingSignatures},
		{domain.StatusReview, domain.StatusPublished},
		// terminal-ish states go nowhere unexpected
		{domain.StatusArchived, domain.StatusDraft},
		{domain.StatusDeclined, domain.StatusReview},
		{domain.StatusExpired, domain.StatusPendingSignatures},
		// self loops are not edges
		{domain.StatusDraft, domain.StatusDraft},
	}

	for _, tc := range rejected {
		err := domain.Transition(tc.from, tc.to)
		assert.Error(t, err, "%s -> %s should be rejected", tc.from, tc.to)

		var invalid *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
		assert.Equal(t, tc.from, invalid.From)
		assert.Equal(t, tc.to, invalid.To)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	err := domain.Transition(domain.DocumentStatus("NONSENSE"), domain.StatusReview)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	err = domain.Transition(domain.StatusDraft, domain.DocumentStatus(""))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestTransitionTargets(t *testing.T) {
	targets := domain.TransitionTargets(domain.StatusReview)
	assert.ElementsMatch(t, []domain.DocumentStatus{
		domain.StatusApproved, domain.StatusUnderRevision, domain.StatusDeclined,
	}, targets)

	// returned slice is a copy, mutating it must not poison the graph
	targets[0] = domain.StatusPublished
	assert.False(t, domain.CanTransition(domain.StatusReview, domain.StatusPublished))

	assert.Empty(t, domain.TransitionTargets(domain.StatusArchived))
}

func TestBucketForStatus(t *testing.T) {
	assert.Equal(t, domain.BucketSigned, domain.BucketForStatus(domain.StatusSigned))
	assert.Equal(t, domain.BucketPublished, domain.BucketForStatus(domain.StatusPublished))
	assert.Equal(t, domain.BucketDraft, domain.BucketForStatus(domain.StatusDraft))
	assert.Equal(t, domain.BucketDraft, domain.BucketForStatus(domain.StatusReview))
	assert.Equal(t, domain.BucketDraft, domain.BucketForStatus(domain.StatusPendingSignatures))
}
