package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/orlim-labs/orlim-go/pkg/orlim"
)

// LocalExecutor signs transaction requests with an in-process key. The
// signed payload is handed to a Submitter for broadcast; without one the
// executor runs in build-and-sign mode and reports the would-be digest,
// which is what the CLI uses for offline inspection.
type LocalExecutor struct {
	signer    *Signer
	submitter Submitter
	logger    *zap.Logger
}

// Submitter broadcasts a signed transaction payload and returns the
// execution digest.
type Submitter interface {
	SubmitTransaction(ctx context.Context, payload []byte, signature []byte) (string, error)
}

func NewLocalExecutor(signer *Signer, submitter Submitter, logger *zap.Logger) *LocalExecutor {
	return &LocalExecutor{signer: signer, submitter: submitter, logger: logger}
}

// SignAndExecute serializes the call list, signs it, and submits when a
// Submitter is configured.
func (e *LocalExecutor) SignAndExecute(ctx context.Context, req *orlim.TxRequest) (*orlim.ExecuteResult, error) {
	if req == nil || len(req.Calls) == 0 {
		return nil, fmt.Errorf("empty transaction request")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	signature, err := e.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if e.submitter == nil {
		digest := blake2b.Sum256(payload)
		e.logger.Info("transaction signed (offline mode)",
			zap.String("sender", e.signer.Address()),
			zap.Int("calls", len(req.Calls)),
		)
		return &orlim.ExecuteResult{
			Digest: hexutil.Encode(digest[:]),
			Status: "signed",
		}, nil
	}

	digest, err := e.submitter.SubmitTransaction(ctx, payload, signature)
	if err != nil {
		return &orlim.ExecuteResult{Status: "failure", Error: err.Error()}, err
	}

	e.logger.Info("transaction executed",
		zap.String("digest", digest),
		zap.String("sender", e.signer.Address()),
	)
	return &orlim.ExecuteResult{Digest: digest, Status: "success"}, nil
}

var _ orlim.Executor = (*LocalExecutor)(nil)
