package market

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"clawstreetbets/models"
)

// errProvisionRace signals that another request linked the Moltbook identity
// between our pre-read and the provisioning transaction. The caller re-reads
// and takes the normal vote path.
var errProvisionRace = errors.New("agent provisioned concurrently")

// CastVoteWithMoltbook votes on behalf of a Moltbook credential. The key is
// verified first, outside any store transaction; a Moltbook account voting
// for the first time gets a local agent provisioned from its verified
// identity, with a fresh API key for future requests. Provisioning and the
// vote share one transaction, so a rejected vote leaves no orphan agent.
//
// When the identity already has a linked agent, the vote runs under the same
// per-(market, agent) lock as CastVote and RemoveVote, so a credential vote
// racing a native vote by the same agent is serialized like any other pair.
func (s *Service) CastVoteWithMoltbook(ctx context.Context, marketID, outcomeID, moltbookKey string) (*models.MarketVote, *models.Agent, error) {
	if s.verifier == nil {
		return nil, nil, ErrBadCredential
	}
	identity, err := s.verifier.Verify(ctx, moltbookKey)
	if err != nil {
		return nil, nil, &Error{KindCredential, fmt.Sprintf("Invalid Moltbook key: %v", err)}
	}
	if identity.Name == "" {
		return nil, nil, ErrMissingIdentity
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		var agent models.Agent
		findErr := s.db.Where("moltbook_agent_id = ?", identity.ID).First(&agent).Error
		if findErr == nil {
			vote, voteErr := s.castVoteLocked(marketID, outcomeID, agent.ID)
			if voteErr != nil {
				return nil, nil, voteErr
			}
			return vote, &agent, nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil, findErr
		}

		vote, provisioned, provErr := s.provisionAndVote(identity, marketID, outcomeID)
		if provErr == nil {
			return vote, provisioned, nil
		}
		// A lost provisioning race means the agent now exists; the retry
		// finds it and votes under the regular lock. Agents are never
		// deleted, so one retry is always enough for that case.
		if errors.Is(provErr, errProvisionRace) || isDuplicateKey(provErr) {
			lastErr = provErr
			continue
		}
		return nil, nil, provErr
	}
	if lastErr != nil && isDuplicateKey(lastErr) {
		return nil, nil, &Error{KindValidation, "Agent name already taken"}
	}
	return nil, nil, lastErr
}

// provisionAndVote links a first-time Moltbook identity and casts its vote in
// one transaction. The identity-keyed lock only guards double provisioning;
// the freshly minted agent's api key has not been revealed to anyone yet, so
// no native-path vote can race this one.
func (s *Service) provisionAndVote(identity Identity, marketID, outcomeID string) (*models.MarketVote, *models.Agent, error) {
	mu := s.votes.lock("moltbook/" + identity.ID + "/" + marketID)
	defer mu.Unlock()

	var vote *models.MarketVote
	var agent models.Agent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("moltbook_agent_id = ?", identity.ID).First(&agent).Error
		if findErr == nil {
			return errProvisionRace
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		apiKey, keyErr := models.GenerateAPIKey()
		if keyErr != nil {
			return keyErr
		}
		externalID := identity.ID
		agent = models.Agent{
			Name:             identity.Name,
			Bio:              fmt.Sprintf("Moltbook user %s", identity.Name),
			APIKey:           apiKey,
			MoltbookAgentID:  &externalID,
			MoltbookUsername: identity.Name,
			MoltbookKarma:    identity.Karma,
		}
		if result := tx.Create(&agent); result.Error != nil {
			return result.Error
		}

		v, txErr := castVoteTx(tx, marketID, outcomeID, agent.ID)
		if txErr != nil {
			return txErr
		}
		vote = v
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return vote, &agent, nil
}
