// internal/workers/paperless/sync-correspondents/handler.go
package synccorrespondents

import (
	"context"
	"fmt"

	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/paperless"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "paperless-sync-correspondents"
)

type CorrespondentCreator interface {
	CreateCorrespondent(ctx context.Context, name string) (*paperless.Correspondent, error)
}

type Store interface {
	ListUnsyncedSuppliers(ctx context.Context) ([]repository.Party, error)
	ListUnsyncedCustomers(ctx context.Context) ([]repository.Party, error)
	MarkSupplierSynced(ctx context.Context, id int64) error
	MarkCustomerSynced(ctx context.Context, id int64) error
}

type Handler struct {
	config     *Config
	paperless  CorrespondentCreator
	store      Store
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, api CorrespondentCreator, store Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		paperless:  api,
		store:      store,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), workers.Timeout(h.config.Timeout))
	defer cancel()

	var input Input
	err := workers.ParseVariables(job, &input)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, &input)
	}
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}
	return camunda.CompleteJob(ctx, client, job, output)
}

// Execute creates a Paperless correspondent for every party not synced
// yet. A party is only marked synced once Paperless accepted it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	list, mark, err := h.partyFuncs(input.Party)
	if err != nil {
		return nil, err
	}

	parties, err := list(ctx)
	if err != nil {
		return nil, workers.StoreError("list unsynced "+input.Party+"s", 0, err)
	}

	out := &Output{Party: input.Party}
	for _, p := range parties {
		if ctx.Err() != nil {
			break
		}
		if err := h.syncParty(ctx, p, mark); err != nil {
			out.Failed++
			h.logger.Error("failed to sync correspondent", map[string]interface{}{
				"party": input.Party,
				"id":    p.ID,
				"name":  p.Name,
				"error": err.Error(),
			})
			continue
		}
		out.Created++
	}

	h.logger.Info("correspondent sync finished", map[string]interface{}{
		"party":   input.Party,
		"created": out.Created,
		"failed":  out.Failed,
	})
	return out, nil
}

func (h *Handler) syncParty(ctx context.Context, p repository.Party, mark func(context.Context, int64) error) error {
	c, err := h.paperless.CreateCorrespondent(ctx, CorrespondentName(p))
	if err != nil {
		return err
	}
	if err := mark(ctx, p.ID); err != nil {
		return fmt.Errorf("mark synced after creating correspondent %d: %w", c.ID, err)
	}
	return nil
}

func (h *Handler) partyFuncs(party string) (func(context.Context) ([]repository.Party, error), func(context.Context, int64) error, error) {
	switch party {
	case PartySupplier:
		return h.store.ListUnsyncedSuppliers, h.store.MarkSupplierSynced, nil
	case PartyCustomer:
		return h.store.ListUnsyncedCustomers, h.store.MarkCustomerSynced, nil
	default:
		return nil, nil, apperrors.NewInputValidationError(
			fmt.Sprintf("party must be %q or %q, got %q", PartySupplier, PartyCustomer, party))
	}
}

// CorrespondentName keeps correspondents unique when two parties share a
// name.
func CorrespondentName(p repository.Party) string {
	return fmt.Sprintf("%s %d", p.Name, p.ID)
}
