package sharing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/poolscout/poolscout/internal/models"
)

// DecisionProof is the payload handed to the on-chain proof collaborator.
// Hash is Keccak-256 over the canonical sorted-key JSON encoding of the
// decision fields, so any consumer can reproduce it independently.
type DecisionProof struct {
	PoolAddress    string `json:"pool_address"`
	APYScaled      int64  `json:"apy_scaled"`
	RiskScore      string `json:"risk_score"`
	Recommendation string `json:"recommendation"`
	AgentVersion   string `json:"agent_version"`
	Hash           string `json:"hash"`
}

// ProofBuilder derives reproducible decision hashes for strategies.
type ProofBuilder struct {
	agentVersion string
}

func NewProofBuilder(agentVersion string) *ProofBuilder {
	return &ProofBuilder{agentVersion: agentVersion}
}

// Build produces the proof for a strategy. APY is scaled to an integer with
// two decimal places of precision so the hash input never carries float
// formatting ambiguity; the risk score is fixed to two decimals for the same
// reason.
func (b *ProofBuilder) Build(strategy models.Strategy) (DecisionProof, error) {
	proof := DecisionProof{
		PoolAddress:    strings.ToLower(strategy.Opportunity.PoolAddress),
		APYScaled:      int64(math.Round(strategy.Opportunity.APY * 100)),
		RiskScore:      fmt.Sprintf("%.2f", strategy.Risk.Score),
		Recommendation: strings.ToUpper(string(strategy.Action)),
		AgentVersion:   b.agentVersion,
	}

	hash, err := decisionHash(proof)
	if err != nil {
		return DecisionProof{}, err
	}
	proof.Hash = hash

	return proof, nil
}

// decisionHash hashes the canonical form of the proof fields. encoding/json
// emits map keys in sorted order, which is the canonical-key contract.
func decisionHash(proof DecisionProof) (string, error) {
	canonical := map[string]interface{}{
		"agent_version":  proof.AgentVersion,
		"apy_scaled":     proof.APYScaled,
		"pool_address":   proof.PoolAddress,
		"recommendation": proof.Recommendation,
		"risk_score":     proof.RiskScore,
	}

	payload, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to encode decision payload: %w", err)
	}

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(payload)

	return "0x" + hex.EncodeToString(hasher.Sum(nil)), nil
}
