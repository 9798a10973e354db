package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/pkg/crm"
	"github.com/soulspace/soulspace_server/internal/pkg/pubsub"
	"github.com/soulspace/soulspace_server/internal/pkg/queue"
	"github.com/soulspace/soulspace_server/internal/repository"
)

// MaxAttempts is how often a sync task is retried before being dropped.
const MaxAttempts = 3

// Processor applies CRM sync tasks from the queue: contact upserts on
// signup and tier updates on subscription changes. The publisher is
// optional; when set, a synced event goes out so API instances can
// notify live websocket clients.
type Processor struct {
	userRepo  *repository.UserRepository
	crmClient crm.Client
	publisher *pubsub.Publisher
}

func NewProcessor(userRepo *repository.UserRepository, crmClient crm.Client, publisher *pubsub.Publisher) *Processor {
	return &Processor{
		userRepo:  userRepo,
		crmClient: crmClient,
		publisher: publisher,
	}
}

// Process handles one sync task. A returned error means the task
// should be retried (the caller requeues it).
func (p *Processor) Process(ctx context.Context, msg *queue.SyncMessage) error {
	switch msg.Action {
	case queue.ActionUpsertContact:
		return p.upsertContact(ctx, msg)
	case queue.ActionUpdateTier:
		return p.updateTier(ctx, msg)
	default:
		// Unknown actions are dropped, not retried
		log.Printf("CRMSync: unknown action %q for user %d, dropping", msg.Action, msg.UserID)
		return nil
	}
}

func (p *Processor) upsertContact(ctx context.Context, msg *queue.SyncMessage) error {
	contactID, err := p.crmClient.UpsertContact(ctx, &crm.Contact{
		Name:  msg.Username,
		Email: msg.Email,
		Tier:  msg.Tier,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert contact for user %d: %w", msg.UserID, err)
	}

	if err := p.userRepo.UpdateFields(msg.UserID, map[string]interface{}{
		"crm_contact_id": contactID,
	}); err != nil {
		// The contact exists in the CRM; a failed ID write is logged,
		// the next tier change falls back to an upsert by email.
		log.Printf("CRMSync: failed to store contact ID for user %d: %v", msg.UserID, err)
	}

	log.Printf("CRMSync: user %d synced to contact %d (source: %s)", msg.UserID, contactID, msg.Source)
	p.publishSynced(ctx, msg, "")
	return nil
}

func (p *Processor) updateTier(ctx context.Context, msg *queue.SyncMessage) error {
	user, err := p.userRepo.GetByID(msg.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("CRMSync: user %d no longer exists, dropping tier update", msg.UserID)
			return nil
		}
		return fmt.Errorf("failed to load user %d: %w", msg.UserID, err)
	}

	// Users who signed up before the CRM went live have no contact yet
	if user.CRMContactID == nil {
		return p.upsertContact(ctx, msg)
	}

	if err := p.crmClient.UpdateContactTier(ctx, *user.CRMContactID, msg.Tier); err != nil {
		return fmt.Errorf("failed to update tier for contact %d: %w", *user.CRMContactID, err)
	}

	log.Printf("CRMSync: user %d tier updated to %s in CRM", msg.UserID, msg.Tier)
	p.publishSynced(ctx, msg, msg.Tier)
	return nil
}

func (p *Processor) publishSynced(ctx context.Context, msg *queue.SyncMessage, tier string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, &pubsub.AccountMessage{
		Type:   pubsub.EventCRMSynced,
		UserID: msg.UserID,
		Tier:   tier,
	}); err != nil {
		log.Printf("CRMSync: failed to publish sync event for user %d: %v", msg.UserID, err)
	}
}
