package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"signet/internal/domain"
	"signet/internal/port"
)

// PlaceholderInput is the DTO for one placeholder in a replace-all update.
type PlaceholderInput struct {
	SignerID  *uuid.UUID       `json:"signer_id"`
	Page      int              `json:"page" binding:"required,min=1"`
	FieldType domain.FieldType `json:"field_type" binding:"required"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	ZIndex    int              `json:"z_index"`
	Options   json.RawMessage  `json:"options"`
}

// PlaceholderService is the placeholder registry: whole-set replacement and
// grouped reads.
type PlaceholderService interface {
	ReplaceAll(ctx context.Context, docID uuid.UUID, inputs []PlaceholderInput) ([]domain.Placeholder, error)
	GetGrouped(ctx context.Context, docID uuid.UUID) ([]domain.PlaceholderGroup, error)
	ListForSigner(ctx context.Context, docID uuid.UUID, signerID *uuid.UUID) ([]domain.Placeholder, error)
}

type placeholderService struct {
	docRepo         port.DocumentRepository
	signerRepo      port.SignerRepository
	placeholderRepo port.PlaceholderRepository
	tx              port.TxManager
}

// NewPlaceholderService creates a new PlaceholderService implementation.
func NewPlaceholderService(
	docRepo port.DocumentRepository,
	signerRepo port.SignerRepository,
	placeholderRepo port.PlaceholderRepository,
	tx port.TxManager,
) PlaceholderService {
	return &placeholderService{
		docRepo:         docRepo,
		signerRepo:      signerRepo,
		placeholderRepo: placeholderRepo,
		tx:              tx,
	}
}

func (s *placeholderService) ReplaceAll(ctx context.Context, docID uuid.UUID, inputs []PlaceholderInput) ([]domain.Placeholder, error) {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return nil, err
	}

	signers, err := s.signerRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(signers))
	for _, sg := range signers {
		known[sg.ID] = true
	}

	placeholders := make([]domain.Placeholder, 0, len(inputs))
	for i, in := range inputs {
		if err := validateOptions(in.FieldType, in.Options); err != nil {
			return nil, fmt.Errorf("placeholder %d: %w", i, err)
		}

		signerID := in.SignerID
		// Placeholders pointing at a signer this document does not have fall
		// back to the self-service prefill owner.
		if signerID != nil && !known[*signerID] {
			log.Printf("placeholderService.ReplaceAll: document %s placeholder %d references unknown signer %s, treating as prefill",
				docID, i, *signerID)
			signerID = nil
		}

		options := in.Options
		if options == nil {
			options = []byte("{}")
		}
		placeholders = append(placeholders, domain.Placeholder{
			ID:        uuid.New(),
			SignerID:  signerID,
			Page:      in.Page,
			FieldType: in.FieldType,
			X:         in.X,
			Y:         in.Y,
			Width:     in.Width,
			Height:    in.Height,
			ZIndex:    in.ZIndex,
			Options:   options,
		})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.placeholderRepo.ReplaceAll(ctx, docID, placeholders)
	})
	if err != nil {
		return nil, err
	}
	return placeholders, nil
}

func (s *placeholderService) GetGrouped(ctx context.Context, docID uuid.UUID) ([]domain.PlaceholderGroup, error) {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	placeholders, err := s.placeholderRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return GroupPlaceholders(placeholders), nil
}

func (s *placeholderService) ListForSigner(ctx context.Context, docID uuid.UUID, signerID *uuid.UUID) ([]domain.Placeholder, error) {
	return s.placeholderRepo.ListBySigner(ctx, docID, signerID)
}

// GroupPlaceholders buckets placeholders first by owning signer (or prefill),
// then by page, preserving insertion order of fields within a page. Group and
// page order follow first appearance in the input slice.
func GroupPlaceholders(placeholders []domain.Placeholder) []domain.PlaceholderGroup {
	groups := []domain.PlaceholderGroup{}
	groupIdx := map[string]int{}

	for _, p := range placeholders {
		owner := p.OwnerKey()
		gi, ok := groupIdx[owner]
		if !ok {
			gi = len(groups)
			groupIdx[owner] = gi
			groups = append(groups, domain.PlaceholderGroup{Owner: owner})
		}

		pages := groups[gi].Pages
		pi := -1
		for j := range pages {
			if pages[j].Page == p.Page {
				pi = j
				break
			}
		}
		if pi < 0 {
			pages = append(pages, domain.PageGroup{Page: p.Page})
			pi = len(pages) - 1
		}
		pages[pi].Fields = append(pages[pi].Fields, p)
		groups[gi].Pages = pages
	}
	return groups
}

// validateOptions enforces the required option keys for a field type at the
// boundary instead of trusting every caller.
func validateOptions(fieldType domain.FieldType, raw json.RawMessage) error {
	required := domain.RequiredOptionKeys[fieldType]
	if len(required) == 0 {
		return nil
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s requires options %v", domain.ErrInvalidPlaceholder, fieldType, required)
	}
	var options map[string]json.RawMessage
	if err := json.Unmarshal(raw, &options); err != nil {
		return fmt.Errorf("%w: options must be a JSON object", domain.ErrInvalidPlaceholder)
	}
	for _, key := range required {
		if _, ok := options[key]; !ok {
			return fmt.Errorf("%w: %s requires option %q", domain.ErrInvalidPlaceholder, fieldType, key)
		}
	}
	return nil
}
