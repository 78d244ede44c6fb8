package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/repository"
	"counselhub/internal/infrastructure/metrics"
	"counselhub/pkg/logger"
	"counselhub/pkg/validation"
)

// IntakeUseCase accepts the public contact form. Nothing about the sender is known,
// so no capability is checked.
type IntakeUseCase struct {
	client     repository.CollectionClient
	collection string
	now        func() time.Time
	newID      func() string
	log        *zap.Logger
}

func NewIntakeUseCase(client repository.CollectionClient, collection string, opts ...StoreOption) *IntakeUseCase {
	o := buildOptions(opts)
	return &IntakeUseCase{
		client:     client,
		collection: collection,
		now:        o.now,
		newID:      o.newID,
		log:        logger.Named("intake"),
	}
}

func (uc *IntakeUseCase) SubmitDirectContact(ctx context.Context, in entity.DirectContactInput) (string, error) {
	if err := validation.Struct(in); err != nil {
		metrics.RecordAction("intake_submit", err)
		return "", err
	}

	now := uc.now().UTC()
	lead := entity.DirectContactLead{
		ID: uc.newID(),
		Contact: entity.ContactInfo{
			Name:      strings.TrimSpace(in.Name),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Email:     strings.TrimSpace(in.Email),
			Phone:     strings.TrimSpace(in.Phone),
		},
		Category:    strings.TrimSpace(in.Category),
		CaseSummary: strings.TrimSpace(in.CaseSummary),
		Message:     strings.TrimSpace(in.Message),
		Status:      entity.LeadNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := uc.client.Create(ctx, uc.collection, lead.ID, lead.ToDocument())
	metrics.RecordAction("intake_submit", err)
	if err != nil {
		uc.log.Error("failed to persist intake lead", zap.Error(err))
		return "", err
	}

	uc.log.Info("intake lead received", zap.String("id", lead.ID))
	return lead.ID, nil
}
