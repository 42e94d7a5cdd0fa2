package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gitdigital/founder-loan-service/consumer"
	"github.com/gitdigital/founder-loan-service/internal/clients/metadataclient"
	"github.com/gitdigital/founder-loan-service/internal/clients/tokenclient"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/db"
	dbmodel "github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/services"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

// newService wires a service from the config file. The returned stop function
// waits for background work and closes the db connection.
func newService(ctx context.Context, cfg *config.Config, publisher consumer.EventPublisher) (*services.Service, func(), error) {
	err := dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		return nil, nil, fmt.Errorf("error while setting up db model: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, nil, fmt.Errorf("error while creating db client: %w", err)
	}
	store := db.NewDbWithMetrics(dbClient)

	token := tokenclient.NewTokenClientWithMetrics(tokenclient.NewLedgerClient(store))

	// assigned only when configured, a typed nil would pass the service's nil check
	var metadata metadataclient.MetadataInterface
	if cfg.Metadata != nil {
		metadata = metadataclient.NewClient(cfg.Metadata)
	}

	srv := services.NewService(cfg, store, token, metadata, publisher)
	stop := func() {
		srv.Stop()
		if err := dbClient.Close(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close db client: %v\n", err)
		}
	}

	return srv, stop, nil
}

// runOneShot loads the config and runs f against a service without an event
// publisher. Events stay in the outbox for a running server to relay.
func runOneShot(ctx context.Context, f func(ctx context.Context, srv *services.Service) (any, error)) error {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	srv, stop, err := newService(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer stop()

	result, err := f(ctx, srv)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func printJSON(v any) error {
	if v == nil {
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// asError converts a service error; a nil *types.Error must not become a
// non-nil error interface.
func asError(err *types.Error) error {
	if err == nil {
		return nil
	}
	return err
}
