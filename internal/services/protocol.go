package services

import (
	"context"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/pkg"
	"github.com/rs/zerolog/log"
)

const operationInitialize = "initialize"

// InitializeProtocolFromConfig initializes the deployment with the protocol
// section of the config.
func (s *Service) InitializeProtocolFromConfig(ctx context.Context) (*loan.Protocol, *types.Error) {
	return s.InitializeProtocol(ctx, loan.InitializeRequest{
		Authority:      s.cfg.Protocol.Authority,
		Treasury:       s.cfg.Protocol.Treasury,
		ProtocolFeeBps: s.cfg.Protocol.ProtocolFeeBps,
		MinCreditScore: s.cfg.Protocol.MinCreditScore,
	})
}

// InitializeProtocol performs the one-time protocol setup. A second call
// fails with ALREADY_INITIALIZED and leaves the stored config unchanged.
func (s *Service) InitializeProtocol(ctx context.Context, req loan.InitializeRequest) (*loan.Protocol, *types.Error) {
	if err := validateIdentities(req.Authority, req.Treasury); err != nil {
		return nil, mapError(err)
	}

	res, err := s.execute(ctx, operation{
		name: operationInitialize,
		lockKeys: func(context.Context) ([]string, error) {
			return []string{protocolLockKey}, nil
		},
		apply: func(ctx context.Context, _ int64) (*records, *loan.Transition, error) {
			current, err := s.loadProtocol(ctx)
			if err != nil {
				return nil, nil, err
			}
			protocol, err := loan.InitializeProtocol(protocolOf(current), req)
			if err != nil {
				return nil, nil, err
			}
			return &records{protocol: current}, &loan.Transition{Protocol: protocol}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	protocol := res.transition.Protocol
	log.Ctx(ctx).Info().
		Str("authority", protocol.Authority).
		Str("treasury", protocol.Treasury).
		Uint16("protocol_fee_bps", protocol.ProtocolFeeBps).
		Uint16("min_credit_score", protocol.MinCreditScore).
		Msg("Protocol initialized")

	return protocol, nil
}

func (s *Service) GetProtocol(ctx context.Context) (*loan.Protocol, *types.Error) {
	doc, err := s.loadProtocol(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	if doc == nil {
		return nil, mapError(loan.ErrNotInitialized)
	}
	return doc.ToProtocol(), nil
}

// validateIdentities checks every non-empty identity. Empty identities are
// left to the state transition, which rejects them where they are required.
func validateIdentities(identities ...string) error {
	for _, identity := range identities {
		if identity == "" {
			continue
		}
		if err := pkg.ValidateIdentity(identity); err != nil {
			return fmt.Errorf("%w: %w", loan.ErrInvalidIdentity, err)
		}
	}
	return nil
}
