// Package resolver decides which stored record is the authoritative,
// publicly visible view of an artefact.
package resolver

import (
	"context"
	"errors"

	"contentapi/internal/domain"
	"contentapi/internal/repo"
)

type Outcome int

const (
	// Visible: the artefact may be rendered; Edition is nil for content
	// whose owning app is not the publisher.
	Visible Outcome = iota
	// Gone: content existed publicly and has been withdrawn. Callers must
	// answer with a 410-equivalent, never a 404.
	Gone
	NotFound
)

type Resolution struct {
	Outcome  Outcome
	Artefact domain.Artefact
	Edition  *domain.Edition
}

type Resolver struct {
	Repo repo.Repo
}

// Resolve locates the live view of the artefact at slug.
//
// Publisher-owned artefacts are only visible through a published edition,
// matched by slug at read time. An archived edition with no published one
// means the content was withdrawn. Draft, ready, and in_review editions
// are treated exactly like no edition at all.
func (r Resolver) Resolve(ctx context.Context, slug string) (Resolution, error) {
	artefact, err := r.Repo.GetArtefact(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return Resolution{Outcome: NotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	if artefact.OwningApp != domain.OwningAppPublisher {
		return Resolution{Outcome: Visible, Artefact: artefact}, nil
	}
	edition, err := r.Repo.FindPublishedEditionForSlug(ctx, slug)
	if err == nil {
		return Resolution{Outcome: Visible, Artefact: artefact, Edition: &edition}, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return Resolution{}, err
	}
	archived, err := r.Repo.HasArchivedEditionForSlug(ctx, slug)
	if err != nil {
		return Resolution{}, err
	}
	if archived {
		return Resolution{Outcome: Gone, Artefact: artefact}, nil
	}
	return Resolution{Outcome: NotFound}, nil
}

// VisibleForListing applies the list-path visibility rule to a candidate
// from a tag or type query. A failing candidate is dropped from the list
// rather than failing the request. Non-publisher artefacts must be live;
// publisher artefacts must have a published edition, which is returned for
// enrichment.
func (r Resolver) VisibleForListing(ctx context.Context, a domain.Artefact) (*domain.Edition, bool, error) {
	if a.OwningApp != domain.OwningAppPublisher {
		return nil, a.State == domain.StateLive, nil
	}
	edition, err := r.Repo.FindPublishedEditionForSlug(ctx, a.Slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &edition, true, nil
}
